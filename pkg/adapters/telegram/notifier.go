// Package telegram announces candidates in a Telegram chat.
package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/export"
)

// Sender is satisfied by *bot.Bot.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier sends candidate summaries to one chat.
type Notifier struct {
	sender Sender
	chatID any
}

// New creates a bot client for token and a notifier posting to chatID
// (a numeric ID or an @channel name).
func New(token string, chatID any) (*Notifier, error) {
	// The bot only sends, so updates are never polled.
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("error creating bot: %w", err)
	}
	return NewNotifier(b, chatID), nil
}

// NewNotifier wraps an existing sender.
func NewNotifier(sender Sender, chatID any) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

// Notify implements ports.Notifier for freshly submitted records.
func (n *Notifier) Notify(ctx context.Context, record domain.AnswerRecord) error {
	return n.send(ctx, export.Summary(domain.StoredRecord{AnswerRecord: record}))
}

// Share sends a stored record, as picked by an operator.
func (n *Notifier) Share(ctx context.Context, record domain.StoredRecord) error {
	return n.send(ctx, export.Summary(record))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	return nil
}
