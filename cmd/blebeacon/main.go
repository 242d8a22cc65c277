package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	fx "github.com/bluelink/ble.go/pkg/framework"
	"github.com/bluelink/ble.go/pkg/ll"
	"github.com/bluelink/ble.go/pkg/ll/beacon"
	"github.com/bluelink/ble.go/pkg/ll/hw/ident"
	"github.com/bluelink/ble.go/pkg/ll/hw/mqttair"
	"github.com/bluelink/ble.go/pkg/ll/hw/sim"
	"github.com/bluelink/ble.go/pkg/ll/radio"
	"github.com/bluelink/ble.go/pkg/mqtt"
)

var (
	brokerURL = flag.String("broker", "", "MQTT broker URL of the virtual air; empty uses the built-in simulator")
	interval  = flag.Duration("interval", 100*time.Millisecond, "advertising interval")
	data      = flag.String("data", "bluelink", "advertising payload")
)

func main() {
	flag.Parse()

	runner := fx.NewRunner().HandleSignals()

	var backend radio.Backend
	if *brokerURL != "" {
		queue, err := mqtt.NewQueueFromURL(*brokerURL)
		if err != nil {
			glog.Exit(err)
		}
		// the broker connect blocks without taking a context, so a signal
		// during startup aborts it by closing the queue
		err = fx.RunWithContextCancel(runner.Context, func() { queue.Close() }, func() error {
			token := queue.Connect()
			token.Wait()
			return token.Error()
		})
		if err == context.Canceled {
			return
		}
		if err != nil {
			glog.Exit(err)
		}
		defer queue.Close()
		backend = mqttair.New(queue, ident.Seed())
	} else {
		backend = sim.New()
	}

	r := radio.New(backend)
	b := beacon.New(r, []byte(*data), ll.FromDuration(*interval))
	r.Handler = b

	runner.Go(b)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
