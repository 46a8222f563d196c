// Package transport implements the worker that exchanges lines with a
// controller on behalf of a streaming session.
//
// A Worker owns exactly one channel.Channel for exactly one connection. It
// runs two managed goroutines: the write loop drains an unbounded FIFO of
// outbound lines and the read loop delivers every complete inbound line to
// the registered line handlers. Workers are single-use; reconnecting means
// creating a new Worker.
//
//	cfg, err := transport.NewConfig("/dev/ttyUSB0", 115200,
//		transport.WithLogger(l),
//	)
//	w := transport.NewWorker(ctx, cfg)
//	w.AddLineHandler(func(_ *transport.Worker, line string) { ... })
//	if err := w.Connect(); err != nil { ... }
//	_ = w.Send("G0 X10")
//	_ = w.Disconnect()
//
// Handlers run synchronously on the worker's goroutines and must not call
// Disconnect directly.
package transport
