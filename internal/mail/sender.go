// Package mail renders and delivers notification emails.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages. Send returns the provider message ID when the
// provider reports one.
type Sender interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}
