package beacon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/hw/sim"
	"github.com/bluelink/ble.go/pkg/ll/radio"
)

func TestBeaconAdvertises(t *testing.T) {
	backend := sim.New()
	r := radio.New(backend)
	b := New(r, []byte("hello"), ll.Milliseconds(100))
	r.Handler = b
	r.IdleInterval = time.Millisecond

	b.Start()
	deadline := time.Now().Add(2 * time.Second)
	for len(backend.Transmits()) < 7 {
		require.NoError(t, r.Run(context.Background()))
		if time.Now().After(deadline) {
			t.Fatal("beacon stalled")
		}
	}

	transmits := backend.Transmits()
	// channels rotate 37, 38, 39 per advertising event
	for i, op := range transmits[:6] {
		require.Equal(t, ll.Channel(37+i%3), op.Channel)
		require.True(t, op.Receive.Empty())
		require.Equal(t, AdvertisingAccessAddress, op.AccessAddress)
		require.Equal(t, AdvertisingCRCInit, op.CRCInit)
	}
	require.True(t, b.Events() >= 1)

	// interval separates events, the gap separates channels within one
	require.Equal(t, transmits[0].Start.Add(ll.Milliseconds(1)), transmits[1].Start)
	require.Equal(t, transmits[2].Start.Add(ll.Milliseconds(100)), transmits[3].Start)
}

func TestBeaconPDU(t *testing.T) {
	backend := sim.New()
	r := radio.New(backend)
	b := New(r, []byte{0xde, 0xad}, ll.Milliseconds(100))
	r.Handler = b

	b.Start()
	pdu := []byte(backend.Transmits()[0].PDU)
	require.Equal(t, byte(0x42), pdu[0])
	require.Equal(t, byte(8), pdu[1])
	addr := b.Address()
	require.Equal(t, addr[:], pdu[2:8])
	require.Equal(t, []byte{0xde, 0xad}, pdu[8:])
	require.True(t, addr.IsStaticRandom())
}
