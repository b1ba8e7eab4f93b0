// internal/reminder/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"time"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// Result is the outcome of one dispatch: either a success tagged with the
// delivering provider, or the last error after every provider and retry
// sweep was exhausted.
type Result struct {
	Success   bool
	Provider  string
	MessageID string
	Err       error
}

// Dispatcher tries an ordered provider chain: verify connectivity, then send.
// A provider failure moves on to the next provider; exhausting the chain
// triggers bounded full-list retry sweeps with linear-multiple backoff
// (attempt * base delay). Permanent recipient errors stop everything at once.
type Dispatcher struct {
	providers     []Provider
	verifyTimeout time.Duration
	sendTimeout   time.Duration
	sweeps        int
	baseDelay     time.Duration
	logger        logger.Logger
	sleep         func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(providers []Provider, verifyTimeout, sendTimeout time.Duration, sweeps int, baseDelay time.Duration, log logger.Logger) *Dispatcher {
	if sweeps <= 0 {
		sweeps = 3
	}
	return &Dispatcher{
		providers:     providers,
		verifyTimeout: verifyTimeout,
		sendTimeout:   sendTimeout,
		sweeps:        sweeps,
		baseDelay:     baseDelay,
		logger:        log,
		sleep:         sleepCtx,
	}
}

// Dispatch attempts delivery of one rendered message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	if len(d.providers) == 0 {
		return Result{Err: stderrors.NewConfigurationError(
			stderrors.ErrCodeTransportNotConfigured, "no transport providers configured")}
	}
	if !models.ValidEmail(msg.To) {
		return Result{Err: stderrors.NewValidationError("recipient address is malformed: " + msg.To)}
	}

	var lastErr error
	for attempt := 1; attempt <= d.sweeps; attempt++ {
		for _, provider := range d.providers {
			messageID, err := d.tryProvider(ctx, provider, msg)
			if err == nil {
				return Result{Success: true, Provider: provider.Name(), MessageID: messageID}
			}
			if stderrors.IsPermanent(err) {
				// A rejected recipient fails the same way everywhere; do not
				// burn the remaining providers or sweeps on it.
				return Result{Err: err}
			}
			lastErr = err
		}

		if attempt < d.sweeps {
			delay := time.Duration(attempt) * d.baseDelay
			d.logger.Warn("all providers failed, backing off", map[string]interface{}{
				"attempt": attempt,
				"sweeps":  d.sweeps,
				"delay":   delay.String(),
			})
			if err := d.sleep(ctx, delay); err != nil {
				return Result{Err: stderrors.NewTransientDeliveryError(
					stderrors.ErrCodeProviderTimeout, err.Error())}
			}
		}
	}

	return Result{Err: lastErr}
}

func (d *Dispatcher) tryProvider(ctx context.Context, provider Provider, msg Message) (string, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, d.verifyTimeout)
	err := provider.Verify(verifyCtx)
	cancel()
	if err != nil {
		d.logger.Warn("provider verify failed", map[string]interface{}{
			"provider": provider.Name(),
			"error":    err,
		})
		return "", err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	messageID, err := provider.Send(sendCtx, msg)
	if err != nil {
		d.logger.Warn("provider send failed", map[string]interface{}{
			"provider": provider.Name(),
			"to":       msg.To,
			"error":    err,
		})
		return "", err
	}

	d.logger.Info("message delivered", map[string]interface{}{
		"provider":  provider.Name(),
		"to":        msg.To,
		"messageId": messageID,
	})
	return messageID, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
