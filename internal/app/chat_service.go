package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"powerbi-portal/internal/ai"
	"powerbi-portal/internal/config"
)

var (
	ErrMessageEmpty      = errors.New("message content is empty")
	ErrChatNotConfigured = errors.New("chat api key is not configured")
	ErrChatUnavailable   = errors.New("chat upstream unavailable")
)

// ChatService proxies a single user message to the configured
// OpenAI-compatible completion endpoint. The portal keeps no conversation
// state; every request stands alone.
type ChatService struct {
	client *ai.OpenAICompatibleClient
	cfg    ai.ChatConfig
	log    zerolog.Logger
}

func NewChatService(cfg config.ChatConfig, logger zerolog.Logger) *ChatService {
	return &ChatService{
		client: ai.NewOpenAICompatibleClient(time.Duration(cfg.TimeoutSeconds) * time.Second),
		cfg: ai.ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		},
		log: logger,
	}
}

func (s *ChatService) Send(ctx context.Context, message string) (string, error) {
	content := strings.TrimSpace(message)
	if content == "" {
		return "", ErrMessageEmpty
	}
	if s.cfg.APIKey == "" {
		return "", ErrChatNotConfigured
	}

	reply, err := s.client.Complete(ctx, s.cfg, []ai.ChatMessage{
		{Role: "user", Content: content},
	})
	if err != nil {
		s.log.Error().Err(err).Msg("chat upstream call failed")
		return "", fmt.Errorf("%w: %v", ErrChatUnavailable, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "The model returned an empty response."
	}
	return reply, nil
}
