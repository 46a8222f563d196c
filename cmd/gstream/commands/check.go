package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arloliu/gstream/gcode"
)

var checkList bool

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Parse a program and print its outline",
	Long: `Parse a G-code file the way send does and print the number of
sendable lines together with the extent of its G0/G1 moves.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkList, "list", "l", false, "print every sendable line")
}

func runCheck(cmd *cobra.Command, args []string) error {
	program, err := gcode.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tp := gcode.Trace(program)

	var rapid int
	for _, seg := range tp.Segments {
		if seg.Rapid {
			rapid++
		}
	}

	printTitle(out, filepath.Base(args[0]))
	printField(out, "lines", "%d", program.Len())
	printField(out, "moves", "%d (%d rapid)", len(tp.Segments), rapid)
	if len(tp.Segments) > 0 {
		printField(out, "min", "%s", tp.Bounds.Min)
		printField(out, "max", "%s", tp.Bounds.Max)
		printField(out, "size", "%s", tp.Bounds.Size())
		printField(out, "length", "%.3f", tp.Length)
	}

	if checkList {
		for i, line := range program.All() {
			fmt.Fprintf(out, "%6d  %s\n", i+1, line)
		}
	}

	return nil
}
