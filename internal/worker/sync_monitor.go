// internal/worker/sync_monitor.go
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/pkg/utils"
)

const DefaultSyncInterval = time.Minute

// StateRefresher refreshes and persists one wallet
type StateRefresher interface {
	RefreshAndStore(ctx context.Context, subject domain.StateSubject) (*domain.CombinedWalletState, error)
}

// SyncMonitor periodically refreshes every stored wallet so cached state
// stays warm between client requests
type SyncMonitor struct {
	store     domain.WalletRecordStore
	refresher StateRefresher
	interval  time.Duration
	clock     clock.Clock
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
}

func NewSyncMonitor(
	store domain.WalletRecordStore,
	refresher StateRefresher,
	interval time.Duration,
	clk clock.Clock,
	logger *zap.Logger,
) *SyncMonitor {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &SyncMonitor{
		store:     store,
		refresher: refresher,
		interval:  interval,
		clock:     clk,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the monitor until Stop is called or ctx ends
func (sm *SyncMonitor) Start(ctx context.Context) {
	sm.logger.Info("Starting wallet sync monitor", zap.Duration("interval", sm.interval))

	for {
		select {
		case <-sm.clock.TickAfter(sm.interval):
			sm.RunOnce(ctx)

		case <-sm.stopChan:
			sm.logger.Info("Stopping wallet sync monitor")
			return

		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping wallet sync monitor")
			return
		}
	}
}

// Stop stops the monitor
func (sm *SyncMonitor) Stop() {
	sm.stopOnce.Do(func() { close(sm.stopChan) })
}

// RunOnce refreshes every stored wallet in store order and returns how many
// refreshes succeeded. One failing wallet does not stop the pass.
func (sm *SyncMonitor) RunOnce(ctx context.Context) int {
	opID := utils.NewOperationID("sync")

	records, err := sm.store.ReadAll(ctx)
	if err != nil {
		sm.logger.Error("Failed to load wallets for sync", zap.String("op_id", opID), zap.Error(err))
		return 0
	}

	refreshed := 0
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}

		_, err := sm.refresher.RefreshAndStore(ctx, domain.SubjectWallet(record.Info))
		if err != nil {
			sm.logger.Warn("Background wallet refresh failed",
				zap.String("op_id", opID),
				zap.String("public_key", record.Info.PublicKey.String()),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}

	sm.logger.Debug("Wallet sync pass completed",
		zap.String("op_id", opID),
		zap.Int("wallets", len(records)),
		zap.Int("refreshed", refreshed),
	)

	return refreshed
}
