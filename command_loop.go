package main

import (
	"context"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ctxflow"

	"github.com/Chronostasys/esp-ir-record/gatts"
	"github.com/Chronostasys/esp-ir-record/led"
)

// commandLoop periodically drains the server's inbound buffer and
// applies the drained bytes as a color command to the strip.
type commandLoop struct {
	srv      *gatts.Server
	strip    *led.Strip
	interval time.Duration

	stopper    ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

func newCommandLoop(srv *gatts.Server, strip *led.Strip, interval time.Duration) *commandLoop {
	l := &commandLoop{
		srv:      srv,
		strip:    strip,
		interval: interval,
	}
	l.stopper = ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]{
		StartStopper: ctxflow.StartStopperBackendFuncs{
			StartFunc: l.doStart,
			StopFunc:  l.doStop,
		},
	}
	return l
}

func (l *commandLoop) Start(ctx context.Context) error {
	return l.stopper.Start(ctx)
}

func (l *commandLoop) Stop() error {
	return l.stopper.Stop()
}

func (l *commandLoop) doStart(ctx context.Context, _ ...any) error {
	ctx, cancel := context.WithCancel(ctx)
	l.loopCancel = cancel
	l.loopDone = make(chan struct{})
	go l.run(ctx)
	return nil
}

func (l *commandLoop) doStop(ctx context.Context) error {
	l.loopCancel()
	<-l.loopDone
	return nil
}

func (l *commandLoop) run(ctx context.Context) {
	logger.Tracef(ctx, "commandLoop")
	defer logger.Tracef(ctx, "/commandLoop")
	defer close(l.loopDone)

	tick := time.NewTicker(l.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			l.apply(ctx, l.srv.ReceivedData())
		}
	}
}

// apply interprets one drained chunk as a color command. An empty
// drain does nothing.
func (l *commandLoop) apply(ctx context.Context, data []byte) {
	if len(data) == 0 {
		return
	}
	cmd := strings.TrimSpace(string(data))
	var c led.Color
	switch cmd {
	case "red":
		c = led.Red
	case "green":
		c = led.Green
	case "blue":
		c = led.Blue
	case "off":
		c = led.Black
	default:
		logger.Warnf(ctx, "unknown command %q", cmd)
		return
	}
	logger.Infof(ctx, "setting the LED to %v", c)
	if err := l.strip.SetColor(ctx, c); err != nil {
		logger.Errorf(ctx, "unable to set the LED color: %v", err)
	}
}
