package gatts

import (
	"context"
	"errors"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// RunDemoCentral drives a scripted central against the simulated
// controller: it connects once the service is up, subscribes to
// indications and confirms them, and writes the given commands to the
// receive characteristic in rotation, one per interval. It returns
// when ctx is canceled.
func (c *SimController) RunDemoCentral(ctx context.Context, interval time.Duration, commands []string) error {
	logger.Tracef(ctx, "RunDemoCentral")
	defer logger.Tracef(ctx, "/RunDemoCentral")
	if len(commands) == 0 {
		return errors.New("no commands to rotate")
	}

	// Wait out the registration; a real central would discover the
	// attributes instead.
	var recv, cccd AttrHandle
	ready := time.NewTicker(50 * time.Millisecond)
	defer ready.Stop()
	for recv == 0 || cccd == 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-ready.C:
			recv = c.HandleOf(RecvCharacteristicUUID)
			cccd = c.HandleOf(attrClientCharacteristicConfigUUID)
		}
	}

	central := c.Connect(ctx)
	central.Write(ctx, cccd, []byte{0x02, 0x00})
	logger.Infof(ctx, "demo central %v connected and subscribed", central.Addr())

	tick := time.NewTicker(interval)
	defer tick.Stop()
	next := 0
	for {
		select {
		case <-ctx.Done():
			central.Disconnect(ctx)
			return nil
		case <-central.Indications():
			if err := central.Confirm(ctx); err != nil {
				return err
			}
		case <-tick.C:
			cmd := commands[next%len(commands)]
			next++
			logger.Debugf(ctx, "demo central writes %q", cmd)
			central.Write(ctx, recv, []byte(cmd))
		}
	}
}
