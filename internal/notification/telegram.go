package notification

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramNotifier posts announcements into a single Telegram chat.
type TelegramNotifier struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64, opts ...telego.BotOption) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Notify(ctx context.Context, e Event) error {
	if _, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(t.chatID), FormatMessage(e))); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
