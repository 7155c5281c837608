// Package notify decides when a verdict needs an alert and hands it to a
// delivery channel. Delivery is best-effort: failures are logged by the
// caller and never affect the already-persisted verdict.
package notify

import (
	"context"

	"go.uber.org/zap"

	"swcheck/internal/types"
)

// ShouldNotify reports whether a verdict requires an alert: any check that
// did not fully pass. Pure predicate, no side effects.
func ShouldNotify(v types.CheckVerdict) bool {
	return v.Overall == types.VerdictNOK
}

// Notifier delivers a NOK verdict to the configured recipients. The context
// bounds the whole delivery attempt so a hung channel cannot stall the
// caller.
type Notifier interface {
	Notify(ctx context.Context, v types.CheckVerdict, recipients []string) error
}

// LogNotifier is the fallback channel used when no mail transport is
// configured: it records the alert and does nothing else.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, v types.CheckVerdict, recipients []string) error {
	n.Log.Warn("NOK verdict, no mail transport configured",
		zap.String("check_id", v.ID),
		zap.String("snr", v.SNR),
		zap.Strings("recipients", recipients))
	return nil
}
