// Package sim provides a simulated hardware backend with a virtual
// microsecond clock and scripted receptions, sufficient to validate the
// scheduling state machine without radio silicon.
package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/radio"
)

// DefaultSeed is the device seed a fresh Simulator reports.
const DefaultSeed uint32 = 0x73c19bf2

// overhead is preamble + access address + CRC in bytes, on air at 1Mbit/s.
const overhead = 8

// Airtime returns how long a PDU of n payload bytes occupies the air.
func Airtime(n int) ll.DeltaTime {
	return ll.Microseconds(int64(n+overhead) * 8)
}

// Reception is a scripted PDU arrival. After is relative to the end of the
// transmission for advertising operations, or to the window opening for
// connection events.
type Reception struct {
	After ll.DeltaTime
	PDU   []byte
	CRCOK bool
}

// Simulator implements radio.Backend. Arm calls resolve immediately in
// virtual time; the completion event is raised from a separate goroutine
// standing in for interrupt context.
type Simulator struct {
	// DeviceSeed is the value reported by Seed.
	DeviceSeed uint32

	isr radio.InterruptHandler

	lock      sync.Mutex
	now       radio.Tick
	queued    map[ll.Channel][]Reception
	transmits []radio.TransmitOp
	receives  []radio.ReceiveOp
}

var _ radio.Backend = (*Simulator)(nil)

// New creates a Simulator with the clock at zero.
func New() *Simulator {
	return &Simulator{
		DeviceSeed: DefaultSeed,
		queued:     make(map[ll.Channel][]Reception),
	}
}

// Inject scripts a reception on a channel. Receptions are consumed in FIFO
// order by the next operation listening on that channel.
func (s *Simulator) Inject(channel ll.Channel, rec Reception) {
	s.lock.Lock()
	s.queued[channel] = append(s.queued[channel], rec)
	s.lock.Unlock()
}

// Now implements radio.Backend.
func (s *Simulator) Now() radio.Tick {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.now
}

// Bind implements radio.Backend.
func (s *Simulator) Bind(isr radio.InterruptHandler) {
	s.isr = isr
}

// Seed implements radio.Backend.
func (s *Simulator) Seed() uint32 {
	return s.DeviceSeed
}

// TransmitAndReceive implements radio.Backend.
func (s *Simulator) TransmitAndReceive(op radio.TransmitOp) {
	s.lock.Lock()
	s.transmits = append(s.transmits, op)
	if op.Start > s.now {
		s.now = op.Start
	}
	txEnd := op.Start.Add(Airtime(op.PDU.Len()))
	s.now = txEnd

	var ev radio.Event
	switch {
	case !op.Channel.IsAdvertising():
		// hardware fault still resolves into one outcome
		glog.Warningf("sim: advertising on channel %d", op.Channel)
		ev = radio.Event{Kind: radio.EventAdvTimeout}
	case op.Receive.Empty():
		// transmit only, completion right after the last bit
		ev = radio.Event{Kind: radio.EventAdvTimeout}
	default:
		rec, ok := s.pop(op.Channel)
		switch {
		case !ok, rec.After > op.Window:
			s.now = txEnd.Add(op.Window)
			ev = radio.Event{Kind: radio.EventAdvTimeout}
		case !rec.CRCOK:
			// CRC failure short-circuits the window
			s.now = txEnd.Add(rec.After).Add(Airtime(len(rec.PDU)))
			ev = radio.Event{Kind: radio.EventAdvTimeout}
		default:
			n := copy(op.Receive, rec.PDU)
			s.now = txEnd.Add(rec.After).Add(Airtime(len(rec.PDU)))
			ev = radio.Event{Kind: radio.EventAdvReceived, Received: n}
		}
	}
	s.lock.Unlock()
	s.raise(ev)
}

// ReceiveWindow implements radio.Backend.
func (s *Simulator) ReceiveWindow(op radio.ReceiveOp) {
	s.lock.Lock()
	s.receives = append(s.receives, op)
	if op.Open > s.now {
		s.now = op.Open
	}

	var ev radio.Event
	if !op.Channel.IsData() {
		glog.Warningf("sim: connection event on channel %d", op.Channel)
		s.now = op.Close
		s.lock.Unlock()
		s.raise(radio.Event{Kind: radio.EventTimeout})
		return
	}
	rec, ok := s.pop(op.Channel)
	first := op.Open.Add(rec.After)
	switch {
	case !ok, first > op.Close:
		s.now = op.Close
		ev = radio.Event{Kind: radio.EventTimeout}
	case !rec.CRCOK:
		s.now = first.Add(Airtime(len(rec.PDU)))
		ev = radio.Event{Kind: radio.EventTimeout}
	default:
		s.now = first.Add(Airtime(len(rec.PDU)))
		if s.now > op.Deadline {
			s.now = op.Deadline
		}
		ev = radio.Event{Kind: radio.EventEndEvent, FirstPDU: first}
	}
	s.lock.Unlock()
	s.raise(ev)
}

// Transmits returns all armed advertising operations, oldest first.
func (s *Simulator) Transmits() []radio.TransmitOp {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]radio.TransmitOp(nil), s.transmits...)
}

// Receives returns all armed connection events, oldest first.
func (s *Simulator) Receives() []radio.ReceiveOp {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]radio.ReceiveOp(nil), s.receives...)
}

func (s *Simulator) pop(channel ll.Channel) (Reception, bool) {
	lst := s.queued[channel]
	if len(lst) == 0 {
		return Reception{}, false
	}
	rec := lst[0]
	s.queued[channel] = lst[1:]
	return rec, true
}

// raise delivers the event from a fresh goroutine, the simulation's stand-in
// for interrupt context.
func (s *Simulator) raise(ev radio.Event) {
	if glog.V(3) {
		glog.Infof("sim: raise %v", ev.Kind)
	}
	go s.isr.HardwareEvent(ev)
}
