package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicState(t *testing.T) {
	require := require.New(t)

	var st atomicState
	require.Equal(NewState, st.Get())
	require.False(st.toConnected())
	require.True(st.toOpening())
	require.False(st.toOpening())
	require.True(st.toConnected())
	require.True(st.IsConnected())
	require.Equal("Connected", st.String())

	prev, ok := st.toClosing()
	require.True(ok)
	require.Equal(ConnectedState, prev)

	_, ok = st.toClosing()
	require.False(ok)

	st.Set(ClosedState)
	require.True(st.IsClosed())
	require.Equal("Unknown", State(99).String())
}
