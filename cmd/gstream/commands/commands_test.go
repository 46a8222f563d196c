package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/gstream/stream"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	rootCmd.SetArgs(append(args, "--config", cfg, "--log-level", "error"))

	err := rootCmd.Execute()

	return out.String(), err
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "part.nc")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	return path
}

const sampleProgram = `; sample
G21
G0 X10 ; rapid
(plunge)
G1 Z-2 F100
G1 Y5
M5
`

func TestCheck(t *testing.T) {
	require := require.New(t)

	out, err := execute(t, "", "check", writeProgram(t, sampleProgram), "--list")
	require.NoError(err)
	require.Contains(out, "part.nc")
	require.Contains(out, "5")
	require.Contains(out, "3 (1 rapid)")
	require.Contains(out, "X10.000 Y5.000 Z0.000")
	require.Contains(out, "G1 Z-2 F100")
	require.NotContains(out, "rapid\n", "comments are stripped from listed lines")
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := execute(t, "", "check", filepath.Join(t.TempDir(), "missing.nc"), "--list=false")
	require.Error(t, err)
}

func TestSend_Simulated(t *testing.T) {
	require := require.New(t)

	out, err := execute(t, "", "send", writeProgram(t, "G0 X10\nG1 Y5 F100\n"), "--port", "SIMULATED", "--baud", "115200")
	require.NoError(err)
	require.Contains(out, "Running")
	require.Contains(out, "Completed.")
	require.Contains(out, "sent 2 lines")
}

func TestSend_FlagsDoNotLeakIntoConfig(t *testing.T) {
	require := require.New(t)
	t.Cleanup(func() { sendBaud = 0 })

	_, err := execute(t, "", "send", writeProgram(t, "G0 X10\n"), "--port", "SIMULATED", "--baud", "250000")
	require.NoError(err)
	require.Equal(115200, globalConfig.Baud)
	require.Equal("SIMULATED", globalConfig.Port)
}

func TestSend_EmptyProgram(t *testing.T) {
	_, err := execute(t, "", "send", writeProgram(t, "; nothing here\n"), "--port", "SIMULATED", "--baud", "115200")
	require.ErrorIs(t, err, stream.ErrNoProgram)
}

func TestSend_StopFromInput(t *testing.T) {
	src := strings.Repeat("G1 X1\n", 5000)

	_, err := execute(t, "stop\n", "send", writeProgram(t, src), "--port", "SIMULATED", "--baud", "115200")
	require.Error(t, err)
	require.Contains(t, err.Error(), "stopped at line")
}

func TestHandleCommand(t *testing.T) {
	require := require.New(t)

	sender := stream.NewSender()
	var out bytes.Buffer

	require.False(handleCommand(sender, "!", &out))
	require.Contains(out.String(), stream.ErrNotConnected.Error())

	out.Reset()
	require.False(handleCommand(sender, "jog", &out))
	require.Contains(out.String(), `unknown command "jog"`)

	require.False(handleCommand(sender, "pause", &out))
	require.True(handleCommand(sender, " STOP ", &out))
}
