package coordinator

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-reminders/internal/common/config"
	"membership-reminders/internal/common/logger"
)

type mockSNS struct {
	published []*sns.PublishInput
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.published = append(m.published, params)
	return &sns.PublishOutput{}, nil
}

func alertsConfig() config.AlertsConfig {
	return config.AlertsConfig{
		Enabled:              true,
		SNSTopicARN:          "arn:aws:sns:us-east-1:123456789012:reminder-alerts",
		FailureRateThreshold: 0.25,
		BlacklistSizeWarning: 10,
		BacklogWarning:       5,
	}
}

func TestWarnings(t *testing.T) {
	monitor := NewMonitor(nil, alertsConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name    string
		summary RunSummary
		want    int
	}{
		{
			name:    "clean run",
			summary: RunSummary{Sent: true, Details: Details{Successful: 10}},
			want:    0,
		},
		{
			name:    "transport misconfigured",
			summary: RunSummary{Sent: false, Message: "transport configuration error: no providers"},
			want:    1,
		},
		{
			name:    "backlog past threshold",
			summary: RunSummary{Sent: true, Details: Details{Successful: 5, Pending: 6}},
			want:    1,
		},
		{
			name:    "backlog under threshold",
			summary: RunSummary{Sent: true, Details: Details{Successful: 5, Pending: 2}},
			want:    0,
		},
		{
			name:    "failure rate past threshold",
			summary: RunSummary{Sent: true, Details: Details{Successful: 2, Failed: 2}},
			want:    1,
		},
		{
			name:    "failure rate under threshold",
			summary: RunSummary{Sent: true, Details: Details{Successful: 9, Failed: 1}},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, monitor.Warnings(tt.summary), tt.want)
		})
	}
}

func TestCheckAfterRun_PublishesToSNS(t *testing.T) {
	snsClient := &mockSNS{}
	monitor := NewMonitor(snsClient, alertsConfig(), logger.NewTestLogger(t))

	monitor.CheckAfterRun(context.Background(), RunSummary{
		Sent:    true,
		Details: Details{Successful: 1, Failed: 3},
	})

	require.Len(t, snsClient.published, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:reminder-alerts", *snsClient.published[0].TopicArn)
	assert.Contains(t, *snsClient.published[0].Message, "failure rate")
}

func TestCheckAfterRun_NoPublishWhenClean(t *testing.T) {
	snsClient := &mockSNS{}
	monitor := NewMonitor(snsClient, alertsConfig(), logger.NewTestLogger(t))

	monitor.CheckAfterRun(context.Background(), RunSummary{Sent: true, Details: Details{Successful: 3}})

	assert.Empty(t, snsClient.published)
}

func TestCheckAfterRun_DisabledConfigSkipsPublish(t *testing.T) {
	snsClient := &mockSNS{}
	cfg := alertsConfig()
	cfg.Enabled = false
	monitor := NewMonitor(snsClient, cfg, logger.NewTestLogger(t))

	monitor.CheckAfterRun(context.Background(), RunSummary{
		Sent:    true,
		Details: Details{Failed: 5, Successful: 0},
	})

	assert.Empty(t, snsClient.published)
}

func TestCheckBlacklistSize(t *testing.T) {
	snsClient := &mockSNS{}
	monitor := NewMonitor(snsClient, alertsConfig(), logger.NewTestLogger(t))

	monitor.CheckBlacklistSize(context.Background(), 9)
	assert.Empty(t, snsClient.published)

	monitor.CheckBlacklistSize(context.Background(), 10)
	require.Len(t, snsClient.published, 1)
	assert.Contains(t, *snsClient.published[0].Message, "blacklist")
}
