// internal/reminder/dispatch/provider.go
package dispatch

import "context"

// Message is a rendered reminder ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Provider is one outbound transport in the fallback chain. Verify and Send
// both run under caller-imposed timeouts.
type Provider interface {
	Name() string
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg Message) (messageID string, err error)
}
