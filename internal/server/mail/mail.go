// Package mail delivers account action messages (email verification and
// password reset links).
package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/snipbin/internal/logging"
)

// Message is one account action email.
type Message struct {
	To          string
	Subject     string
	Title       string
	Description string
	Link        string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ActionLink joins baseURL, action and code into the link a user follows,
// e.g. "https://snipbin.example/verify/<code>".
func ActionLink(baseURL, action, code string) (string, error) {
	link, err := url.JoinPath(baseURL, action, code)
	if err != nil {
		return "", fmt.Errorf("bad website base url: %w", err)
	}
	return link, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "mail", "to", msg.To, "subject", msg.Subject, "link", msg.Link)
	return nil
}
