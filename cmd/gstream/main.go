// gstream streams G-code programs to Grbl-style controllers over a serial
// port, one acknowledged line at a time.
//
// Usage:
//
//	gstream ports                               # List serial ports
//	gstream check part.nc                       # Parse a program and print its outline
//	gstream send part.nc --port /dev/ttyUSB0    # Stream a program
//	gstream send part.nc --port SIMULATED       # Stream to the built-in simulator
//
// Defaults are read from ~/.gstream/config.yaml.
package main

import (
	"os"

	"github.com/arloliu/gstream/cmd/gstream/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
