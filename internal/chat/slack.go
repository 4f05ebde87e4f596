// Package chat implements the chat backend over a Slack IM channel. The
// bot on the other side edits a single message while composing, suffixing
// a typing marker until the final edit; every history read therefore
// returns the entire message so far.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Compile-time interface check.
var _ domain.ChatBackend = (*Slack)(nil)

// api is the slice of the Slack client this package uses. *slack.Client
// satisfies it; tests substitute a fake.
type api interface {
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Option configures the Slack backend.
type Option func(*Slack)

// WithPollDelay sets the delay between history reads while a reply is
// composing.
func WithPollDelay(d time.Duration) Option {
	return func(s *Slack) { s.pollDelay = d }
}

// Slack posts queries into an IM with the bot user and polls the channel
// history for the bot's cumulative message edits.
type Slack struct {
	api       api
	botID     string
	channelID string
	pollDelay time.Duration
	log       *logger.Logger
}

// NewSlack creates a chat backend for the given user token and bot user id.
func NewSlack(token, botID string, log *logger.Logger, opts ...Option) *Slack {
	s := &Slack{
		api:       slack.New(token),
		botID:     botID,
		pollDelay: 100 * time.Millisecond,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open resolves and caches the IM channel with the bot. Idempotent.
func (s *Slack) Open(ctx context.Context) error {
	if s.channelID != "" {
		return nil
	}
	ch, _, _, err := s.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{s.botID},
		ReturnIM: true,
	})
	if err != nil {
		return fmt.Errorf("%w: open channel: %w", domain.ErrChatDispatch, err)
	}
	s.channelID = ch.ID
	s.log.Info("chat: channel %s open with bot %s", s.channelID, s.botID)
	return nil
}

// Ask posts the query and returns the reply stream for this turn. The
// stream only yields messages authored by the bot after the posted query.
func (s *Slack) Ask(ctx context.Context, query string) (domain.ReplySource, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}

	_, ts, err := s.api.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(query, false))
	if err != nil {
		return nil, fmt.Errorf("%w: post message: %w", domain.ErrChatDispatch, err)
	}
	s.log.Debug("chat: posted query at ts=%s", ts)

	return &replyStream{
		api:       s.api,
		channelID: s.channelID,
		botID:     s.botID,
		oldest:    ts,
		pollDelay: s.pollDelay,
	}, nil
}

// replyStream polls the channel history for the newest bot message. It is
// scoped to a single turn and never restarted.
type replyStream struct {
	api       api
	channelID string
	botID     string
	oldest    string
	pollDelay time.Duration
}

// Next blocks until a bot message newer than the posted query exists and
// returns its raw text. Consecutive calls may return the same snapshot;
// deduplication belongs to the segmenter.
func (r *replyStream) Next(ctx context.Context) (string, error) {
	for {
		resp, err := r.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: r.channelID,
			Oldest:    r.oldest,
			Limit:     1,
		})
		if err != nil {
			return "", fmt.Errorf("chat: read history: %w", err)
		}

		for _, msg := range resp.Messages {
			if msg.User == r.botID {
				return msg.Text, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.pollDelay):
		}
	}
}
