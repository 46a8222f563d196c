// Package stream implements acknowledgment-gated streaming of a G-code
// program to a controller.
//
// A Sender holds the loaded program, the send index and a single-slot gate.
// Each Tick sends at most one line and closes the gate; the controller's
// "ok" reopens it. At most one program line is therefore outstanding at any
// time. Immediate commands (feed hold, cycle resume, unlock, home) bypass the
// gate.
//
// A Session owns the controller side of a connection: it creates a
// transport.Worker per Connect, routes inbound lines to the Sender and drives
// Tick on a fixed interval.
//
//	s := stream.NewSession(ctx, stream.SessionOptions{})
//	if err := s.Connect(ctx, channel.Identity{Port: "SIMULATED", BaudRate: 115200}); err != nil { ... }
//	go s.Run(ctx)
//	s.Sender().Load(program)
//	err := s.Sender().Start()
//
// Position is derived by scanning sent lines for X, Y and Z words. It
// reflects what was sent, not confirmed machine motion.
//
// A controller that answers with anything but "ok" (an alarm, an error)
// stalls the stream at the current index until the operator intervenes.
// There is no acknowledgment timeout.
package stream
