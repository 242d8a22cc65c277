package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/hw/sim"
	"github.com/bluelink/ble.go/pkg/ll/radio"
)

// outcomes forwards every callback to the shell as a printable line.
type outcomes struct {
	ch chan string
}

func (o *outcomes) AdvReceived(pdu []byte) { o.ch <- fmt.Sprintf("adv_received %x", pdu) }
func (o *outcomes) AdvTimeout()            { o.ch <- "adv_timeout" }
func (o *outcomes) Timeout()               { o.ch <- "timeout" }
func (o *outcomes) EndEvent()              { o.ch <- "end_event" }

type shell struct {
	backend *sim.Simulator
	radio   *radio.ScheduledRadio
	events  *outcomes
}

func (s *shell) waitOutcome(c *ishell.Context) {
	for {
		if err := s.radio.Run(context.Background()); err != nil {
			c.Err(err)
			return
		}
		select {
		case line := <-s.events.ch:
			c.Println(line)
			return
		default:
		}
	}
}

func (s *shell) cmdSeed(c *ishell.Context) {
	seed := s.radio.StaticRandomAddressSeed()
	c.Printf("seed    %08x\n", seed)
	c.Printf("address %v\n", ll.GenerateStaticRandomAddress(seed))
}

func (s *shell) cmdConfig(c *ishell.Context) {
	if len(c.Args) != 2 {
		c.Err(fmt.Errorf("usage: config <access-address-hex> <crc-init-hex>"))
		return
	}
	aa, err := strconv.ParseUint(c.Args[0], 16, 32)
	if err != nil {
		c.Err(err)
		return
	}
	crc, err := strconv.ParseUint(c.Args[1], 16, 32)
	if err != nil {
		c.Err(err)
		return
	}
	s.radio.SetAccessAddressAndCRCInit(uint32(aa), uint32(crc))
}

func (s *shell) cmdInject(c *ishell.Context) {
	if len(c.Args) < 3 {
		c.Err(fmt.Errorf("usage: inject <channel> <after-µs> <pdu-hex> [badcrc]"))
		return
	}
	channel, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	if !ll.Channel(channel).IsValid() {
		c.Err(fmt.Errorf("channel %d out of range", channel))
		return
	}
	after, err := strconv.ParseInt(c.Args[1], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}
	pdu, err := hex.DecodeString(c.Args[2])
	if err != nil {
		c.Err(err)
		return
	}
	crcOK := len(c.Args) < 4 || c.Args[3] != "badcrc"
	s.backend.Inject(ll.Channel(channel), sim.Reception{
		After: ll.Microseconds(after),
		PDU:   pdu,
		CRCOK: crcOK,
	})
}

func (s *shell) cmdAdv(c *ishell.Context) {
	if len(c.Args) < 3 {
		c.Err(fmt.Errorf("usage: adv <channel> <when-µs> <pdu-hex> [recv-capacity]"))
		return
	}
	channel, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	when, err := strconv.ParseInt(c.Args[1], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}
	pdu, err := hex.DecodeString(c.Args[2])
	if err != nil {
		c.Err(err)
		return
	}
	var recv ll.ReadBuffer
	if len(c.Args) > 3 {
		n, err := strconv.Atoi(c.Args[3])
		if err != nil {
			c.Err(err)
			return
		}
		recv = make(ll.ReadBuffer, n)
	}
	s.radio.ScheduleAdvertisementAndReceive(ll.Channel(channel), pdu, ll.Microseconds(when), recv)
	s.waitOutcome(c)
}

func (s *shell) cmdConn(c *ishell.Context) {
	if len(c.Args) != 4 {
		c.Err(fmt.Errorf("usage: conn <channel> <start-µs> <end-µs> <interval-µs>"))
		return
	}
	args := make([]int64, 4)
	for i, a := range c.Args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			c.Err(err)
			return
		}
		args[i] = v
	}
	s.radio.ScheduleConnectionEvent(ll.Channel(args[0]),
		ll.Microseconds(args[1]), ll.Microseconds(args[2]), ll.Microseconds(args[3]))
	s.waitOutcome(c)
}

func main() {
	flag.Parse()

	s := &shell{
		backend: sim.New(),
		events:  &outcomes{ch: make(chan string, 1)},
	}
	s.radio = radio.New(s.backend)
	s.radio.Handler = s.events
	s.radio.IdleInterval = time.Millisecond

	sh := ishell.New()
	sh.Println("scheduled radio shell (simulated backend)")
	sh.AddCmd(&ishell.Cmd{Name: "seed", Help: "print device seed and static random address", Func: s.cmdSeed})
	sh.AddCmd(&ishell.Cmd{Name: "config", Help: "set access address and CRC init", Func: s.cmdConfig})
	sh.AddCmd(&ishell.Cmd{Name: "inject", Help: "script a reception on a channel", Func: s.cmdInject})
	sh.AddCmd(&ishell.Cmd{Name: "adv", Help: "schedule an advertising transmission", Func: s.cmdAdv})
	sh.AddCmd(&ishell.Cmd{Name: "conn", Help: "schedule a connection event", Func: s.cmdConn})
	sh.Run()
}
