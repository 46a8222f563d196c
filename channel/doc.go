// Package channel abstracts the line-oriented byte stream between the host and
// a motion controller.
//
// Two implementations exist behind the Channel interface:
//
//   - Serial: a physical port opened through go.bug.st/serial.
//   - Simulated: answers every written line with "ok" after a fixed delay, so a
//     stream can be exercised without hardware.
//
// New selects the implementation from the Identity: the port name
// SimulatedPort (or an empty name) selects the simulator.
//
// A Channel is owned by exactly one transport worker. ReadLine and WriteLine
// may be called concurrently with each other, but neither may be called
// concurrently with itself.
package channel
