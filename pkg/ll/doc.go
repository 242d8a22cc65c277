// Package ll defines the link layer scheduling contract between generic
// protocol logic and a radio hardware backend.
package ll

// The contract is built around relative time: every scheduling call takes
// offsets against an anchor point T0 that is owned by the scheduler and is
// never exposed as an absolute value. Each scheduling operation defines what
// the next T0 is, so protocol logic composes sequences of relative offsets
// without ever reading a clock.
//
// Two execution contexts exist. Interrupt context is raised by the hardware
// backend when the radio completes a transmission, receives a PDU or a window
// timer fires; it only captures results and wakes the run context. Run
// context is the single cooperative loop driving Radio.Run, and is the only
// context that invokes outcome callbacks.
//
// Producer: protocol logic (advertising, connection management)
// Consumer: a hardware backend (real silicon or simulation)
