package notification

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v3"
)

// EmailNotifier mails each announcement to a fixed recipient list through Mailgun.
type EmailNotifier struct {
	mg         *mailgun.MailgunImpl
	sender     string
	recipients []string
}

func NewEmailNotifier(domain, apiKey, sender string, recipients []string) *EmailNotifier {
	return &EmailNotifier{
		mg:         mailgun.NewMailgun(domain, apiKey),
		sender:     sender,
		recipients: recipients,
	}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, e Event) error {
	name := e.UserName
	if name == "" {
		name = DefaultUserName
	}
	subject := fmt.Sprintf("%s updated their dungeon progress", name)

	message := n.mg.NewMessage(n.sender, subject, FormatMessage(e), n.recipients...)
	if _, _, err := n.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
