package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/utils"
)

// Telegram sends messages via the Telegram Bot API, rate limited globally.
type Telegram struct {
	bot     *bot.Bot
	limiter *rate.Limiter
	logger  *logging.Logger
}

func NewTelegram(token string, ratePerSecond int, logger *logging.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &Telegram{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:  logger,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, ep models.Endpoint, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit wait: %w", err)
	}

	chatID, err := strconv.ParseInt(ep.Address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", ep.Address, err)
	}

	// Transport-level retry; the orchestrator and scheduler never retry.
	return utils.Retry(ctx, t.logger, 3, time.Second, func() error {
		_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: "HTML",
		})
		if err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", chatID, err)
		}
		return nil
	})
}
