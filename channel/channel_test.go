package channel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsImplementation(t *testing.T) {
	require := require.New(t)

	_, ok := New(Identity{Port: SimulatedPort, BaudRate: 115200}, Options{}).(*Simulated)
	require.True(ok)

	_, ok = New(Identity{BaudRate: 115200}, Options{}).(*Simulated)
	require.True(ok)

	_, ok = New(Identity{Port: "COM3", BaudRate: 115200}, Options{}).(*Serial)
	require.True(ok)
}

func TestIdentity(t *testing.T) {
	require := require.New(t)

	require.Equal("SIMULATED@115200", Identity{BaudRate: 115200}.String())
	require.Equal("/dev/ttyUSB0@9600", Identity{Port: "/dev/ttyUSB0", BaudRate: 9600}.String())
	require.False(Identity{Port: "COM1"}.IsSimulated())

	require.True(IsRecommendedBaudRate(115200))
	require.True(IsRecommendedBaudRate(250000))
	require.False(IsRecommendedBaudRate(12345))
}

func TestLineAssembler(t *testing.T) {
	require := require.New(t)

	asm := newLineAssembler()
	asm.feed([]byte("ok\r\nAL"))

	line, ok := asm.next()
	require.True(ok)
	require.Equal("ok", line)

	_, ok = asm.next()
	require.False(ok)

	asm.feed([]byte("ARM:1\n\n"))
	line, _ = asm.next()
	require.Equal("ALARM:1", line)
	line, ok = asm.next()
	require.True(ok)
	require.Empty(line)

	asm.feed([]byte("partial"))
	asm.reset()
	asm.feed([]byte("ok\n"))
	line, _ = asm.next()
	require.Equal("ok", line)
}
