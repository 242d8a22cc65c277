package mqttair

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/radio"
)

const (
	testAccessAddress uint32 = 0x8e89bed6
	testCRCInit       uint32 = 0x555555
	testDeviceSeed    uint32 = 0x1001
	testPeerSeed      uint32 = 0x2002
)

type eventRecorder struct {
	events []radio.Event
}

func (r *eventRecorder) HardwareEvent(ev radio.Event) {
	r.events = append(r.events, ev)
}

type airTestCtx struct {
	t    *testing.T
	air  *Air
	isr  *eventRecorder
	recv ll.ReadBuffer
}

func newAirTest(t *testing.T) *airTestCtx {
	tctx := &airTestCtx{t: t, isr: &eventRecorder{}}
	tctx.air = New(nil, testDeviceSeed)
	tctx.air.Bind(tctx.isr)
	return tctx
}

// armAdv puts the air into the state an advertising transmission leaves
// behind, minus the wall clock timer, so each case is driven explicitly
// through onAir and expire.
func (tctx *airTestCtx) armAdv(channel ll.Channel) {
	a := tctx.air
	tctx.recv = make(ll.ReadBuffer, 16)
	a.lock.Lock()
	a.armed = armedAdvWindow
	a.op.channel = channel
	a.op.accessAddress = testAccessAddress
	a.op.crcInit = testCRCInit
	a.op.receive = tctx.recv
	a.op.close = a.Now().Add(ll.Seconds(10))
	a.gen++
	a.lock.Unlock()
}

func (tctx *airTestCtx) armConn(channel ll.Channel) {
	a := tctx.air
	a.lock.Lock()
	a.armed = armedConnWindow
	a.op.channel = channel
	a.op.accessAddress = testAccessAddress
	a.op.crcInit = testCRCInit
	a.op.receive = nil
	a.op.close = a.Now().Add(ll.Seconds(10))
	a.gen++
	a.lock.Unlock()
}

func (tctx *airTestCtx) closeWindow() {
	tctx.air.lock.Lock()
	tctx.air.op.close = tctx.air.Now().Add(ll.Microseconds(-1))
	tctx.air.lock.Unlock()
}

func (tctx *airTestCtx) currentGen() uint64 {
	tctx.air.lock.Lock()
	defer tctx.air.lock.Unlock()
	return tctx.air.gen
}

func (tctx *airTestCtx) expectKinds(kinds ...radio.EventKind) {
	require.Len(tctx.t, tctx.isr.events, len(kinds))
	for i, kind := range kinds {
		require.Equal(tctx.t, kind, tctx.isr.events[i].Kind)
	}
}

func peerFrame(pdu []byte) []byte {
	f := Frame{
		Sender:        testPeerSeed,
		AccessAddress: testAccessAddress,
		Check:         CheckValue(testCRCInit, pdu),
		PDU:           pdu,
	}
	return f.Marshal()
}

func TestAirAdvReception(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	pdu := []byte{0x42, 0x02, 0xaa, 0xbb}
	tctx.air.onAir(37, peerFrame(pdu))
	tctx.expectKinds(radio.EventAdvReceived)
	require.Equal(t, len(pdu), tctx.isr.events[0].Received)
	require.Equal(t, pdu, []byte(tctx.recv[:len(pdu)]))

	// the operation resolved, a second frame must not raise anything
	tctx.air.onAir(37, peerFrame(pdu))
	tctx.expectKinds(radio.EventAdvReceived)
}

func TestAirAdvCRCFailure(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	f := Frame{
		Sender:        testPeerSeed,
		AccessAddress: testAccessAddress,
		Check:         CheckValue(testCRCInit, []byte{1, 2}) ^ 1,
		PDU:           []byte{1, 2},
	}
	tctx.air.onAir(37, f.Marshal())
	tctx.expectKinds(radio.EventAdvTimeout)
}

func TestAirConnFirstPDU(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armConn(12)

	tctx.air.onAir(12, peerFrame([]byte{0x05, 0x00}))
	tctx.expectKinds(radio.EventEndEvent)
	require.True(t, tctx.isr.events[0].FirstPDU > 0)
	require.True(t, tctx.isr.events[0].FirstPDU <= tctx.air.Now())
}

func TestAirConnCRCFailure(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armConn(12)

	f := Frame{
		Sender:        testPeerSeed,
		AccessAddress: testAccessAddress,
		Check:         CheckValue(testCRCInit, []byte{3}) ^ 1,
		PDU:           []byte{3},
	}
	tctx.air.onAir(12, f.Marshal())
	tctx.expectKinds(radio.EventTimeout)
}

func TestAirChannelFilter(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	tctx.air.onAir(38, peerFrame([]byte{1}))
	tctx.expectKinds()

	tctx.air.onAir(37, peerFrame([]byte{1}))
	tctx.expectKinds(radio.EventAdvReceived)
}

func TestAirAccessAddressFilter(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	f := Frame{
		Sender:        testPeerSeed,
		AccessAddress: testAccessAddress + 1,
		Check:         CheckValue(testCRCInit, []byte{1}),
		PDU:           []byte{1},
	}
	tctx.air.onAir(37, f.Marshal())
	tctx.expectKinds()
}

func TestAirOwnEchoIgnored(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	pdu := []byte{0x42}
	f := Frame{
		Sender:        testDeviceSeed,
		AccessAddress: testAccessAddress,
		Check:         CheckValue(testCRCInit, pdu),
		PDU:           pdu,
	}
	tctx.air.onAir(37, f.Marshal())
	tctx.expectKinds()
}

func TestAirLateArrivalIgnored(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)
	tctx.closeWindow()

	tctx.air.onAir(37, peerFrame([]byte{1, 2}))
	tctx.expectKinds()
}

func TestAirGarbagePayloadIgnored(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)

	tctx.air.onAir(37, []byte{0x00, 0x01})
	tctx.expectKinds()
}

func TestAirStaleTimerDropped(t *testing.T) {
	tctx := newAirTest(t)
	tctx.armAdv(37)
	stale := tctx.currentGen()

	// the reception resolves the operation and a new one is armed
	tctx.air.onAir(37, peerFrame([]byte{1}))
	tctx.armAdv(38)

	// the first operation's timer firing late must not resolve the second
	tctx.air.expire(stale, radio.Event{Kind: radio.EventAdvTimeout})
	tctx.expectKinds(radio.EventAdvReceived)

	tctx.air.expire(tctx.currentGen(), radio.Event{Kind: radio.EventAdvTimeout})
	tctx.expectKinds(radio.EventAdvReceived, radio.EventAdvTimeout)
}

func TestAirExpireWhileIdleDropped(t *testing.T) {
	tctx := newAirTest(t)
	tctx.air.expire(0, radio.Event{Kind: radio.EventAdvTimeout})
	tctx.expectKinds()
}
