// Package radio implements the link layer scheduling state machine on top of
// a hardware Backend.
package radio

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/bluelink/ble.go/pkg/ll"
)

// DefaultIdleInterval is how long one Run cycle waits before returning to the
// caller when no hardware event and no wake request arrives.
const DefaultIdleInterval = 10 * time.Millisecond

// DefaultReceiveWindow is how long the receiver listens after an advertising
// transmission ends.
var DefaultReceiveWindow = ll.Microseconds(150)

var _ ll.Radio = (*ScheduledRadio)(nil)

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingAdv
	pendingConn
)

// ScheduledRadio schedules radio operations at relative points in time and
// reports each operation's single outcome through an ll.EventHandler.
//
// The state machine is Idle -> Pending(kind) -> Idle: a scheduling call moves
// to Pending, the backend's completion event (captured in interrupt context)
// moves back to Idle when the run context dispatches the one permitted
// callback. Scheduling while Pending is a programming error and panics.
type ScheduledRadio struct {
	// Handler receives all outcome callbacks. It must be assigned before the
	// first scheduling call and not changed afterwards.
	Handler ll.EventHandler
	// IdleInterval overrides DefaultIdleInterval when non-zero.
	IdleInterval time.Duration

	backend Backend
	seed    uint32

	wakeCh chan struct{}

	// guarded covers every field shared between interrupt and run context.
	// All access goes through Lock(); see Guard.
	guarded struct {
		lock    irqLock
		pending pendingKind
		event   *Event
		receive ll.ReadBuffer
	}

	// run context only
	t0            Tick
	accessAddress uint32
	crcInit       uint32
}

// New creates a ScheduledRadio over a backend. The instant of construction
// defines the first anchor T0 for the first scheduling call.
func New(backend Backend) *ScheduledRadio {
	r := &ScheduledRadio{
		backend: backend,
		seed:    backend.Seed(),
		wakeCh:  make(chan struct{}, 1),
		t0:      backend.Now(),
	}
	backend.Bind(r)
	return r
}

// ScheduleAdvertisementAndReceive implements ll.Radio.
func (r *ScheduledRadio) ScheduleAdvertisementAndReceive(channel ll.Channel, transmit ll.WriteBuffer, when ll.DeltaTime, receive ll.ReadBuffer) {
	if transmit.Empty() {
		panic("radio: advertising with empty transmit buffer")
	}
	if r.Handler == nil {
		panic("radio: no event handler assigned")
	}
	guard := r.Lock()
	r.mustBeIdle("ScheduleAdvertisementAndReceive", guard)
	r.guarded.pending = pendingAdv
	r.guarded.receive = receive
	guard.Unlock()
	r.t0 = r.t0.Add(when) // the anchor moves to transmit start, whatever the outcome
	op := TransmitOp{
		Channel:       channel,
		PDU:           transmit,
		Start:         r.t0,
		Receive:       receive,
		Window:        DefaultReceiveWindow,
		AccessAddress: r.accessAddress,
		CRCInit:       r.crcInit,
	}
	if glog.V(3) {
		glog.Infof("adv ch=%d len=%d when=%v recv=%d", channel, transmit.Len(), when, receive.Cap())
	}
	r.backend.TransmitAndReceive(op)
}

// ScheduleConnectionEvent implements ll.Radio.
func (r *ScheduledRadio) ScheduleConnectionEvent(channel ll.Channel, startReceive, endReceive, connInterval ll.DeltaTime) {
	if r.Handler == nil {
		panic("radio: no event handler assigned")
	}
	op := ReceiveOp{
		Channel:       channel,
		Open:          r.t0.Add(startReceive),
		Close:         r.t0.Add(endReceive),
		Deadline:      r.t0.Add(connInterval),
		AccessAddress: r.accessAddress,
		CRCInit:       r.crcInit,
	}
	guard := r.Lock()
	r.mustBeIdle("ScheduleConnectionEvent", guard)
	r.guarded.pending = pendingConn
	guard.Unlock()
	if glog.V(3) {
		glog.Infof("conn ch=%d window=[%v,%v]", channel, startReceive, endReceive)
	}
	r.backend.ReceiveWindow(op)
}

// SetAccessAddressAndCRCInit implements ll.Radio. It applies to the next
// scheduling call; calling it while an operation is outstanding panics.
func (r *ScheduledRadio) SetAccessAddressAndCRCInit(accessAddress, crcInit uint32) {
	guard := r.Lock()
	r.mustBeIdle("SetAccessAddressAndCRCInit", guard)
	guard.Unlock()
	r.accessAddress, r.crcInit = accessAddress, crcInit
}

// StaticRandomAddressSeed implements ll.Radio.
func (r *ScheduledRadio) StaticRandomAddressSeed() uint32 {
	return r.seed
}

// Run implements ll.Radio. One cooperative cycle: wait, dispatch at most one
// outcome callback, return. Early returns happen when WakeUp is called or
// when the idle interval elapses without any event, so the surrounding
// application regains control periodically.
func (r *ScheduledRadio) Run(ctx context.Context) error {
	idle := r.IdleInterval
	if idle == 0 {
		idle = DefaultIdleInterval
	}
	timer := time.NewTimer(idle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.wakeCh:
	case <-timer.C:
	}
	r.dispatch()
	return nil
}

// WakeUp implements ll.Radio. Non-blocking, interrupt safe: the signal is a
// single pending slot, so repeated calls before the next Run cycle collapse
// into one.
func (r *ScheduledRadio) WakeUp() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

// HardwareEvent implements InterruptHandler. It records the completion of the
// outstanding operation and wakes the run context. It never dispatches
// callbacks itself.
func (r *ScheduledRadio) HardwareEvent(ev Event) {
	guard := r.Lock()
	if r.guarded.pending == pendingNone || r.guarded.event != nil {
		guard.Unlock()
		glog.Errorf("spurious hardware event %v dropped", ev.Kind)
		return
	}
	r.guarded.event = &ev
	guard.Unlock()
	r.WakeUp()
}

// dispatch delivers the pending outcome, if any, to the handler. Run context
// only. The state machine returns to Idle before the callback is invoked, so
// the handler may issue the next scheduling call from inside it.
func (r *ScheduledRadio) dispatch() {
	guard := r.Lock()
	ev := r.guarded.event
	if ev == nil {
		guard.Unlock()
		return
	}
	was := r.guarded.pending
	recv := r.guarded.receive
	r.guarded.event = nil
	r.guarded.pending = pendingNone
	r.guarded.receive = nil
	guard.Unlock()

	if err := checkOutcome(was, ev.Kind); err != nil {
		panic(err)
	}
	switch ev.Kind {
	case EventAdvReceived:
		r.Handler.AdvReceived(recv[:ev.Received])
	case EventAdvTimeout:
		r.Handler.AdvTimeout()
	case EventTimeout:
		// the event did not happen for timing purposes, T0 stays
		r.Handler.Timeout()
	case EventEndEvent:
		r.t0 = ev.FirstPDU
		r.Handler.EndEvent()
	}
}

func (r *ScheduledRadio) mustBeIdle(op string, guard *Guard) {
	if r.guarded.pending != pendingNone {
		guard.Unlock()
		panic(fmt.Sprintf("radio: %s while an operation is outstanding", op))
	}
}

func checkOutcome(was pendingKind, kind EventKind) error {
	switch was {
	case pendingAdv:
		if kind == EventAdvReceived || kind == EventAdvTimeout {
			return nil
		}
	case pendingConn:
		if kind == EventTimeout || kind == EventEndEvent {
			return nil
		}
	}
	return fmt.Errorf("radio: backend raised %v for operation kind %d", kind, was)
}
