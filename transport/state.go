package transport

import "sync/atomic"

// State is the lifecycle stage of a Worker. It only moves forward:
// New, Opening, Connected, Closing, Closed.
type State uint32

const (
	NewState State = iota
	OpeningState
	ConnectedState
	ClosingState
	ClosedState
)

func (s State) String() string {
	switch s {
	case NewState:
		return "New"
	case OpeningState:
		return "Opening"
	case ConnectedState:
		return "Connected"
	case ClosingState:
		return "Closing"
	case ClosedState:
		return "Closed"
	default:
		return "Unknown"
	}
}

type atomicState struct {
	state atomic.Uint32
}

func (st *atomicState) String() string { return st.Get().String() }

func (st *atomicState) Get() State { return State(st.state.Load()) }

func (st *atomicState) Set(s State) { st.state.Store(uint32(s)) }

func (st *atomicState) IsConnected() bool { return st.Get() == ConnectedState }

func (st *atomicState) IsClosed() bool { return st.Get() == ClosedState }

func (st *atomicState) toOpening() bool {
	return st.state.CompareAndSwap(uint32(NewState), uint32(OpeningState))
}

func (st *atomicState) toConnected() bool {
	return st.state.CompareAndSwap(uint32(OpeningState), uint32(ConnectedState))
}

// toClosing moves any live state to Closing and returns the state it left.
func (st *atomicState) toClosing() (State, bool) {
	for {
		cur := st.Get()
		if cur == ClosingState || cur == ClosedState {
			return cur, false
		}
		if st.state.CompareAndSwap(uint32(cur), uint32(ClosingState)) {
			return cur, true
		}
	}
}
