// Package mqttair implements a radio backend over an MQTT broker: one topic
// per RF channel forms a shared virtual air, letting multiple processes
// exchange PDUs with real wall-clock timing.
package mqttair

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/radio"
	"github.com/bluelink/ble.go/pkg/mqtt"
)

type armedKind int

const (
	armedNone armedKind = iota
	armedAdvWindow
	armedConnWindow
)

// Air implements radio.Backend over an MQTT broker. Completion events are
// raised from paho's receiver goroutine and from window timers, both standing
// in for interrupt context.
type Air struct {
	// Queue is the connected MQTT transport.
	Queue *mqtt.Queue
	// DeviceSeed identifies this device on the air and seeds its static
	// random address.
	DeviceSeed uint32

	isr   radio.InterruptHandler
	epoch time.Time

	lock      sync.Mutex
	listening map[ll.Channel]bool
	armed     armedKind
	op        struct {
		channel       ll.Channel
		accessAddress uint32
		crcInit       uint32
		receive       ll.ReadBuffer
		close         radio.Tick
	}
	timer *time.Timer
	// gen invalidates window timers that fire after their operation was
	// already resolved and a new one armed.
	gen uint64
}

var _ radio.Backend = (*Air)(nil)

// New creates an Air over a connected Queue.
func New(queue *mqtt.Queue, deviceSeed uint32) *Air {
	return &Air{
		Queue:      queue,
		DeviceSeed: deviceSeed,
		epoch:      time.Now(),
		listening:  make(map[ll.Channel]bool),
	}
}

// Now implements radio.Backend.
func (a *Air) Now() radio.Tick {
	return radio.Tick(time.Since(a.epoch) / time.Microsecond)
}

// Bind implements radio.Backend.
func (a *Air) Bind(isr radio.InterruptHandler) {
	a.isr = isr
}

// Seed implements radio.Backend.
func (a *Air) Seed() uint32 {
	return a.DeviceSeed
}

// TransmitAndReceive implements radio.Backend.
func (a *Air) TransmitAndReceive(op radio.TransmitOp) {
	a.listen(op.Channel)
	go func() {
		a.sleepUntil(op.Start)
		frame := Frame{
			Sender:        a.DeviceSeed,
			AccessAddress: op.AccessAddress,
			Check:         CheckValue(op.CRCInit, op.PDU),
			PDU:           op.PDU,
		}
		a.Queue.Pub(topic(op.Channel), frame.Marshal())
		if op.Receive.Empty() {
			a.isr.HardwareEvent(radio.Event{Kind: radio.EventAdvTimeout})
			return
		}
		a.lock.Lock()
		a.armed = armedAdvWindow
		a.op.channel = op.Channel
		a.op.accessAddress = op.AccessAddress
		a.op.crcInit = op.CRCInit
		a.op.receive = op.Receive
		a.op.close = a.Now().Add(op.Window)
		a.gen++
		gen := a.gen
		a.timer = time.AfterFunc(op.Window.Duration(), func() {
			a.expire(gen, radio.Event{Kind: radio.EventAdvTimeout})
		})
		a.lock.Unlock()
	}()
}

// ReceiveWindow implements radio.Backend. The event concludes at the first
// valid PDU inside [Open, Close], so op.Deadline never becomes the binding
// bound on this backend; only the window close arms a timer.
func (a *Air) ReceiveWindow(op radio.ReceiveOp) {
	a.listen(op.Channel)
	go func() {
		a.sleepUntil(op.Open)
		a.lock.Lock()
		a.armed = armedConnWindow
		a.op.channel = op.Channel
		a.op.accessAddress = op.AccessAddress
		a.op.crcInit = op.CRCInit
		a.op.receive = nil
		a.op.close = op.Close
		a.gen++
		gen := a.gen
		a.timer = time.AfterFunc(ll.DeltaTime(op.Close-a.Now()).Duration(), func() {
			a.expire(gen, radio.Event{Kind: radio.EventTimeout})
		})
		a.lock.Unlock()
	}()
}

func (a *Air) listen(channel ll.Channel) {
	a.lock.Lock()
	already := a.listening[channel]
	a.listening[channel] = true
	a.lock.Unlock()
	if already {
		return
	}
	a.Queue.Sub(topic(channel), func(_ string, payload []byte) {
		a.onAir(channel, payload)
	})
}

// onAir runs on paho's receiver goroutine (interrupt context).
func (a *Air) onAir(channel ll.Channel, payload []byte) {
	frame, err := Unmarshal(payload)
	if err != nil {
		glog.V(2).Infof("air: drop on ch %d: %v", channel, err)
		return
	}
	if frame.Sender == a.DeviceSeed {
		return // own transmission echoed back by the broker
	}
	now := a.Now()

	a.lock.Lock()
	if a.armed == armedNone || a.op.channel != channel || now > a.op.close ||
		frame.AccessAddress != a.op.accessAddress {
		a.lock.Unlock()
		return
	}
	kind := a.armed
	crcOK := frame.CheckValid(a.op.crcInit)
	var ev radio.Event
	switch {
	case kind == armedAdvWindow && crcOK:
		ev = radio.Event{Kind: radio.EventAdvReceived, Received: copy(a.op.receive, frame.PDU)}
	case kind == armedAdvWindow:
		ev = radio.Event{Kind: radio.EventAdvTimeout} // CRC failure, no further waiting
	case crcOK:
		ev = radio.Event{Kind: radio.EventEndEvent, FirstPDU: now}
	default:
		ev = radio.Event{Kind: radio.EventTimeout}
	}
	a.disarm()
	a.lock.Unlock()
	a.isr.HardwareEvent(ev)
}

// expire runs on the window timer goroutine (interrupt context).
func (a *Air) expire(gen uint64, ev radio.Event) {
	a.lock.Lock()
	if a.armed == armedNone || gen != a.gen {
		a.lock.Unlock()
		return // a reception already resolved this operation
	}
	a.disarm()
	a.lock.Unlock()
	a.isr.HardwareEvent(ev)
}

func (a *Air) disarm() {
	a.armed = armedNone
	a.op.receive = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Air) sleepUntil(t radio.Tick) {
	if d := ll.DeltaTime(t - a.Now()); d > 0 {
		time.Sleep(d.Duration())
	}
}

func topic(channel ll.Channel) string {
	return fmt.Sprintf("ch/%d", channel)
}
