// Package beacon implements a minimal non-connectable advertiser on top of
// the link layer scheduling contract.
package beacon

import (
	"context"

	"github.com/golang/glog"

	"github.com/bluelink/ble.go/pkg/ll"
)

// advNonConnInd is the PDU type header for non-connectable undirected
// advertising with a random transmitter address.
const advNonConnInd = 0x02 | 0x40

// AdvertisingAccessAddress is the fixed access address for advertising
// channel traffic.
const AdvertisingAccessAddress uint32 = 0x8e89bed6

// AdvertisingCRCInit is the CRC seed for advertising channel traffic.
const AdvertisingCRCInit uint32 = 0x555555

// interChannelGap separates the transmissions of one advertising event on
// the three advertising channels.
var interChannelGap = ll.Milliseconds(1)

// Beacon broadcasts one advertising payload on all three advertising
// channels every interval. It is the protocol logic side of the scheduling
// contract: it issues the next scheduling call from inside each callback.
type Beacon struct {
	Radio    ll.Radio
	Interval ll.DeltaTime
	Data     []byte

	addr    ll.Address
	pdu     []byte
	channel ll.Channel
	events  uint64
}

// New creates a Beacon advertising data every interval.
func New(r ll.Radio, data []byte, interval ll.DeltaTime) *Beacon {
	b := &Beacon{
		Radio:    r,
		Interval: interval,
		Data:     data,
		addr:     ll.GenerateStaticRandomAddress(r.StaticRandomAddressSeed()),
		channel:  ll.MinAdvertisingChannel,
	}
	b.pdu = b.buildPDU()
	return b
}

// Address returns the static random address the beacon advertises with.
func (b *Beacon) Address() ll.Address {
	return b.addr
}

// Events returns the number of completed advertising events.
func (b *Beacon) Events() uint64 {
	return b.events
}

// Start configures the radio and schedules the first transmission. Must be
// called from run context before driving Radio.Run.
func (b *Beacon) Start() {
	b.Radio.SetAccessAddressAndCRCInit(AdvertisingAccessAddress, AdvertisingCRCInit)
	glog.Infof("beacon %v advertising every %v", b.addr, b.Interval)
	b.Radio.ScheduleAdvertisementAndReceive(b.channel, b.pdu, 0, nil)
}

// Run implements framework.Runnable: it starts the beacon and allocates the
// goroutine to the radio until ctx is done.
func (b *Beacon) Run(ctx context.Context) error {
	b.Start()
	for {
		if err := b.Radio.Run(ctx); err != nil {
			return err
		}
	}
}

// AdvReceived implements ll.EventHandler. A non-connectable beacon never
// opens the receiver, so this indicates a backend bug.
func (b *Beacon) AdvReceived(pdu []byte) {
	glog.Errorf("beacon: unexpected reception of %d bytes", len(pdu))
	b.next()
}

// AdvTimeout implements ll.EventHandler. For transmit-only operations this
// means the PDU went on air; schedule the next channel.
func (b *Beacon) AdvTimeout() {
	b.next()
}

// Timeout implements ll.EventHandler.
func (b *Beacon) Timeout() {
	glog.Error("beacon: unexpected connection event timeout")
}

// EndEvent implements ll.EventHandler.
func (b *Beacon) EndEvent() {
	glog.Error("beacon: unexpected connection event end")
}

func (b *Beacon) next() {
	when := interChannelGap
	if b.channel == ll.MaxAdvertisingChannel {
		b.channel = ll.MinAdvertisingChannel
		b.events++
		when = b.Interval
	} else {
		b.channel++
	}
	b.Radio.ScheduleAdvertisementAndReceive(b.channel, b.pdu, when, nil)
}

func (b *Beacon) buildPDU() []byte {
	pdu := make([]byte, 0, 2+6+len(b.Data))
	pdu = append(pdu, advNonConnInd, byte(6+len(b.Data)))
	pdu = append(pdu, b.addr[:]...)
	return append(pdu, b.Data...)
}
