package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"

	"github.com/Chronostasys/esp-ir-record/gatts"
	"github.com/Chronostasys/esp-ir-record/led"
)

func main() {
	loggerLevel := logger.LevelInfo
	flag.Var(&loggerLevel, "log-level", "logging level (fatal, error, warning, info, debug, trace)")
	deviceName := flag.String("name", gatts.DefaultDeviceName, "advertised device name")
	ledDevice := flag.String("led-device", "", "SPI device of the LED chain, e.g. /dev/spidev0.0 (empty: record only)")
	ledCount := flag.Int("led-count", 1, "number of LEDs on the chain")
	pollInterval := flag.Duration("poll-interval", 100*time.Millisecond, "how often to drain received commands")
	demo := flag.Bool("demo", false, "run a scripted central against the simulated controller")
	flag.Parse()

	ll := logrus.New()
	ll.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	ctx := logger.CtxWithLogger(context.Background(), xlogrus.New(ll).WithLevel(loggerLevel))
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *deviceName, *ledDevice, *ledCount, *pollInterval, *demo); err != nil {
		logger.Fatalf(ctx, "%v", err)
	}
}

func run(ctx context.Context, deviceName, ledDevice string, ledCount int, pollInterval time.Duration, demo bool) error {
	var tx led.Transmitter = &led.RecordingTransmitter{}
	if ledDevice != "" {
		hw, err := led.OpenTransmitter(ledDevice)
		if err != nil {
			return fmt.Errorf("unable to open the LED transmitter: %w", err)
		}
		tx = hw
	}
	if closer, ok := tx.(io.Closer); ok {
		defer closer.Close()
	}
	strip := led.NewStrip(tx, ledCount)

	sim := gatts.NewSimController()
	srv, err := gatts.NewServer(sim.Gap(), sim.Gatts(), gatts.WithDeviceName(deviceName))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			logger.Errorf(ctx, "unable to stop the server: %v", err)
		}
	}()

	if demo {
		go func() {
			if err := sim.RunDemoCentral(ctx, 2*time.Second, []string{"red", "green", "blue", "off"}); err != nil {
				logger.Errorf(ctx, "demo central: %v", err)
			}
		}()
	}

	loop := newCommandLoop(srv, strip, pollInterval)
	if err := loop.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Infof(ctx, "shutting down")
	if err := loop.Stop(); err != nil {
		logger.Errorf(ctx, "unable to stop the command loop: %v", err)
	}
	if err := strip.SetColor(context.WithoutCancel(ctx), led.Black); err != nil {
		logger.Warnf(ctx, "unable to turn the LED off: %v", err)
	}
	return nil
}
