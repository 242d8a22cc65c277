package ll

import "context"

// EventHandler receives the outcome of scheduled operations. Exactly one of
// the four callbacks is invoked per scheduling call, always from within the
// run context (Radio.Run), never from interrupt context.
type EventHandler interface {
	// AdvReceived reports that a structurally valid PDU was received within
	// the advertising receive window. pdu aliases the ReadBuffer passed to
	// the scheduling call, trimmed to the received length.
	AdvReceived(pdu []byte)

	// AdvTimeout reports that the advertising receive window closed without
	// a valid PDU, or that a CRC error was detected. For a transmit-only
	// operation (empty ReadBuffer) it reports that the transmission
	// completed; the name is overloaded on purpose to keep a single
	// notification per operation.
	AdvTimeout()

	// Timeout reports that no valid PDU arrived within a connection event's
	// receive window. The timing anchor is unchanged.
	Timeout()

	// EndEvent reports that a connection event concluded. The timing anchor
	// moves to the instant the first PDU was received from the peer.
	EndEvent()
}

// Radio is the scheduling contract implemented on top of a hardware backend.
//
// All scheduling calls are non-blocking: they arm the hardware and return
// immediately. At most one operation may be outstanding; the next scheduling
// call is permitted only after the previous operation's single outcome
// callback has fired. Scheduling calls are made from run context only,
// typically from inside a just delivered callback.
type Radio interface {
	// ScheduleAdvertisementAndReceive transmits on an advertising channel so
	// the first bit starts at T0+when, then, if receive is non-empty, opens
	// the receiver shortly after the transmission ends. The new T0 is
	// T0+when regardless of outcome.
	ScheduleAdvertisementAndReceive(channel Channel, transmit WriteBuffer, when DeltaTime, receive ReadBuffer)

	// ScheduleConnectionEvent opens the receiver on a data channel at
	// T0+startReceive and closes it at T0+endReceive if nothing valid
	// arrived (outcome Timeout, T0 unchanged). Once a valid PDU arrives the
	// event proceeds and concludes with EndEvent; the new T0 is the instant
	// the first PDU was received. connInterval bounds the total event
	// duration; it never produces a callback of its own.
	ScheduleConnectionEvent(channel Channel, startReceive, endReceive, connInterval DeltaTime)

	// SetAccessAddressAndCRCInit changes the access address and CRC seed
	// used to match transmitted and received PDUs. It must only be called
	// while no operation is outstanding and applies to the next scheduling
	// call, never retroactively.
	SetAccessAddressAndCRCInit(accessAddress, crcInit uint32)

	// StaticRandomAddressSeed returns a device specific value that is stable
	// for the lifetime of the device, used to seed the static random
	// address.
	StaticRandomAddressSeed() uint32

	// Run allocates the calling goroutine to the radio for one cooperative
	// cycle: it waits for a hardware event, a wake request, ctx cancellation
	// or an idle interval, dispatches at most one outcome callback and
	// returns. It returns ctx.Err() once ctx is done, nil otherwise.
	Run(ctx context.Context) error

	// WakeUp forces Run to return at least once. Callable from any context,
	// including interrupt context, concurrently with Run. Multiple calls
	// before the next Run cycle collapse into one pending signal.
	WakeUp()
}
