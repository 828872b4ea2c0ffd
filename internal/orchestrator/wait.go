package orchestrator

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deployer/pkg/logging"
)

// WaitForInterrupt blocks until SIGINT or SIGTERM arrives, the wait is
// reset with ResetWaitForInterrupt, or ctx is done.
func (o *Orchestrator) WaitForInterrupt(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	logging.Info("Orchestrator", "Waiting for interrupt")
	for {
		select {
		case sig := <-sigs:
			logging.Info("Orchestrator", "Received %s", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if o.waitReset.Swap(false) {
				logging.Info("Orchestrator", "Wait for interrupt was reset")
				return nil
			}
		}
	}
}

// ResetWaitForInterrupt makes a pending WaitForInterrupt return.
func (o *Orchestrator) ResetWaitForInterrupt() {
	o.waitReset.Store(true)
}
