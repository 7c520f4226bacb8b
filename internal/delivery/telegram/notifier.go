package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
)

// BadgeNotifier sends badge celebration messages over Telegram. User IDs
// double as Telegram chat IDs on this platform.
type BadgeNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewBadgeNotifier creates a notifier on top of an authorized bot client.
func NewBadgeNotifier(bot *tgbotapi.BotAPI) *BadgeNotifier {
	return &BadgeNotifier{bot: bot}
}

// BadgeAwarded sends one celebration message listing the new badges.
func (n *BadgeNotifier) BadgeAwarded(_ context.Context, userID int64, badges []entities.AwardedBadge) error {
	if len(badges) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("🏅 New badge")
	if len(badges) > 1 {
		b.WriteString("s")
	}
	b.WriteString(" earned!\n")
	for _, badge := range badges {
		fmt.Fprintf(&b, "• %s\n", badge.Title)
	}

	msg := tgbotapi.NewMessage(userID, b.String())
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send badge notification: %w", err)
	}

	return nil
}
