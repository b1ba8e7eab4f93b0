// internal/reminder/coordinator/monitor.go
package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"membership-reminders/internal/common/config"
	"membership-reminders/internal/common/logger"
)

// SNSAPI is the slice of the SNS client the monitor publishes through.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Monitor derives operator warnings from run outcomes and publishes them to
// an SNS topic when one is configured. Warnings never influence pipeline
// behavior.
type Monitor struct {
	snsClient SNSAPI
	cfg       config.AlertsConfig
	logger    logger.Logger
}

func NewMonitor(snsClient SNSAPI, cfg config.AlertsConfig, log logger.Logger) *Monitor {
	return &Monitor{snsClient: snsClient, cfg: cfg, logger: log}
}

// CheckAfterRun evaluates a finished run's summary against alert thresholds.
func (m *Monitor) CheckAfterRun(ctx context.Context, summary RunSummary) {
	warnings := m.Warnings(summary)
	if len(warnings) == 0 {
		return
	}

	for _, w := range warnings {
		m.logger.Warn("operator warning", map[string]interface{}{"warning": w})
	}
	m.publish(ctx, warnings)
}

// Warnings computes the derived warning list for one run summary.
func (m *Monitor) Warnings(summary RunSummary) []string {
	var warnings []string
	d := summary.Details

	if !summary.Sent && strings.Contains(summary.Message, "transport configuration") {
		warnings = append(warnings, "notification transport is misconfigured; no reminders can be sent")
	}

	if d.Pending >= m.cfg.BacklogWarning && d.Pending > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d eligible members left unsent by rate caps; backlog will roll into the next run", d.Pending))
	}

	total := d.Successful + d.Failed
	if total > 0 {
		rate := float64(d.Failed) / float64(total)
		if rate >= m.cfg.FailureRateThreshold {
			warnings = append(warnings, fmt.Sprintf(
				"delivery failure rate %.0f%% exceeds threshold (%d of %d attempts failed)",
				rate*100, d.Failed, total))
		}
	}

	return warnings
}

// CheckBlacklistSize raises a warning when the permanent blacklist grows past
// the configured bound.
func (m *Monitor) CheckBlacklistSize(ctx context.Context, count int) {
	if count < m.cfg.BlacklistSizeWarning {
		return
	}
	warning := fmt.Sprintf("permanent blacklist holds %d members (warning threshold %d)",
		count, m.cfg.BlacklistSizeWarning)
	m.logger.Warn("operator warning", map[string]interface{}{"warning": warning})
	m.publish(ctx, []string{warning})
}

func (m *Monitor) publish(ctx context.Context, warnings []string) {
	if m.snsClient == nil || !m.cfg.Enabled || m.cfg.SNSTopicARN == "" {
		return
	}

	_, err := m.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(m.cfg.SNSTopicARN),
		Subject:  aws.String("Reminder engine warnings"),
		Message:  aws.String(strings.Join(warnings, "\n")),
	})
	if err != nil {
		m.logger.Error("failed to publish alert", map[string]interface{}{"error": err})
	}
}
