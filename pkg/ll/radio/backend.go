package radio

import (
	"github.com/bluelink/ble.go/pkg/ll"
)

// Tick is an absolute point on the backend's clock, in microseconds since an
// arbitrary epoch. Ticks never leave this package boundary towards protocol
// logic; callers only ever deal in ll.DeltaTime offsets.
type Tick int64

// Add offsets the tick by a relative duration.
func (t Tick) Add(d ll.DeltaTime) Tick {
	return t + Tick(d)
}

// TransmitOp describes one armed advertising operation.
type TransmitOp struct {
	Channel ll.Channel
	PDU     ll.WriteBuffer
	// Start is the instant the first bit goes on air.
	Start Tick
	// Receive is the destination for a response PDU. Empty means the
	// receiver stays off and the operation completes with the transmission.
	Receive ll.ReadBuffer
	// Window is how long the receiver listens after the transmission ends.
	Window        ll.DeltaTime
	AccessAddress uint32
	CRCInit       uint32
}

// ReceiveOp describes one armed connection event.
type ReceiveOp struct {
	Channel ll.Channel
	// Open and Close bound the window in which the first PDU from the peer
	// must arrive.
	Open  Tick
	Close Tick
	// Deadline is the hard bound on the whole event (connection interval).
	Deadline      Tick
	AccessAddress uint32
	CRCInit       uint32
}

// EventKind tags a hardware completion event.
type EventKind int

const (
	// EventAdvReceived: a CRC valid PDU landed in TransmitOp.Receive.
	EventAdvReceived EventKind = iota
	// EventAdvTimeout: window closed, CRC error, or transmit-only done.
	EventAdvTimeout
	// EventTimeout: no valid PDU between ReceiveOp.Open and Close.
	EventTimeout
	// EventEndEvent: the connection event concluded.
	EventEndEvent
)

func (k EventKind) String() string {
	switch k {
	case EventAdvReceived:
		return "adv-received"
	case EventAdvTimeout:
		return "adv-timeout"
	case EventTimeout:
		return "timeout"
	case EventEndEvent:
		return "end-event"
	}
	return "unknown"
}

// Event is the completion record captured in interrupt context. It carries
// everything the run context needs to dispatch the outcome callback.
type Event struct {
	Kind EventKind
	// Received is the number of bytes copied into the receive view, for
	// EventAdvReceived.
	Received int
	// FirstPDU is the instant the first PDU arrived from the peer, for
	// EventEndEvent. It becomes the new anchor.
	FirstPDU Tick
}

// InterruptHandler is the interrupt context entry point a backend raises
// completion events through. Implementations must not dispatch callbacks;
// they only record the event and wake the run context.
type InterruptHandler interface {
	HardwareEvent(Event)
}

// Backend is the hardware abstraction a ScheduledRadio drives. Arm calls are
// made from run context; the backend reports each operation's single
// completion by calling InterruptHandler.HardwareEvent from its interrupt
// context. Every armed operation must resolve into exactly one event, CRC
// failures and hardware faults included.
type Backend interface {
	// Now reads the backend clock.
	Now() Tick
	// Bind registers the interrupt handler. Called once before any arm call.
	Bind(InterruptHandler)
	// TransmitAndReceive arms an advertising transmission, optionally
	// followed by a receive window.
	TransmitAndReceive(TransmitOp)
	// ReceiveWindow arms a connection event.
	ReceiveWindow(ReceiveOp)
	// Seed returns a persistent, device unique value (CPU id or such).
	Seed() uint32
}
