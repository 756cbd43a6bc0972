package gateway

import (
	"context"
	"fmt"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// Sender delivers a text to one endpoint of its channel. Errors surface to
// the caller as logs only; the core never retries a failed send.
type Sender interface {
	Send(ctx context.Context, ep models.Endpoint, text string) error
}

// Gateway dispatches outbound texts to the adapter registered for the
// endpoint's channel.
type Gateway struct {
	senders map[models.ChannelKind]Sender
	logger  *logging.Logger
}

func New(logger *logging.Logger) *Gateway {
	return &Gateway{senders: make(map[models.ChannelKind]Sender), logger: logger}
}

// Register installs the adapter for a channel. Not safe for concurrent use
// with Send; wiring happens once at startup.
func (g *Gateway) Register(kind models.ChannelKind, s Sender) {
	g.senders[kind] = s
}

func (g *Gateway) Send(ctx context.Context, ep models.Endpoint, text string) error {
	s, ok := g.senders[ep.Kind]
	if !ok {
		return fmt.Errorf("no sender registered for channel %q", ep.Kind)
	}
	if err := s.Send(ctx, ep, text); err != nil {
		return fmt.Errorf("send via %s failed: %w", ep.Kind, err)
	}
	g.logger.Debugf("Sent message via %s to %s", ep.Kind, ep.Address)
	return nil
}
