package metrics

import (
	"context"

	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/spf13/viper"
)

// FromConfig returns nil unless player.metrics_addr is set, in which case the metrics are served
// there until ctx is done.
func FromConfig(ctx context.Context) *Metrics {
	addr := viper.GetString(key.PlayerMetricsAddr)
	if addr == "" {
		return nil
	}

	m := New()
	go func() {
		if err := m.Serve(ctx, addr); err != nil {
			log.Warnf("metrics listener on %s: %v", addr, err)
		}
	}()

	return m
}
