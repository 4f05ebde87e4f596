// Package bridge implements the conversation orchestrator: a single-task
// loop that detects new spoken queries, intercepts mode commands, relays
// normal queries to the chat backend and plays the streamed answer back on
// the speaker. It depends only on interfaces and is fully testable with
// fakes.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hammamikhairi/minarelay/internal/conversation"
	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
	"github.com/hammamikhairi/minarelay/internal/reply"
	"github.com/hammamikhairi/minarelay/internal/speech"
)

// Option configures the bridge.
type Option func(*Bridge)

// WithCycleDelay sets the unconditional pause between poll cycles.
func WithCycleDelay(d time.Duration) Option {
	return func(b *Bridge) { b.cycleDelay = d }
}

// WithPrompt sets the instruction suffix appended to every dispatched
// query.
func WithPrompt(p string) Option {
	return func(b *Bridge) { b.prompt = p }
}

// WithMode sets the initial conversation mode.
func WithMode(m domain.Mode) Option {
	return func(b *Bridge) { b.mode = m }
}

// Bridge drives the query-detection / session-recovery / reply-streaming
// loop. One logical task owns all mutable state: the mode flag, the
// last-seen position marker and the session artifacts behind the renewer.
type Bridge struct {
	poller   domain.QuerySource
	renewer  domain.SessionRenewer
	chat     domain.ChatBackend
	player   domain.PlaybackController
	voice    domain.Voice
	parser   *conversation.CommandParser
	notifier domain.Notifier
	driver   *reply.Driver
	log      *logger.Logger

	cycleDelay time.Duration
	prompt     string

	state         State
	mode          domain.Mode
	lastTimestamp int64
}

// New creates an orchestrator with the given collaborators and options.
func New(
	poller domain.QuerySource,
	renewer domain.SessionRenewer,
	chat domain.ChatBackend,
	player domain.PlaybackController,
	voice domain.Voice,
	parser *conversation.CommandParser,
	notifier domain.Notifier,
	driver *reply.Driver,
	log *logger.Logger,
	opts ...Option,
) *Bridge {
	b := &Bridge{
		poller:     poller,
		renewer:    renewer,
		chat:       chat,
		player:     player,
		voice:      voice,
		parser:     parser,
		notifier:   notifier,
		driver:     driver,
		log:        log,
		cycleDelay: time.Second,
		mode:       domain.ModeAdvancedOn,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current loop state.
func (b *Bridge) State() State { return b.state }

// Mode returns the current conversation mode.
func (b *Bridge) Mode() domain.Mode { return b.mode }

// LastTimestamp returns the last-seen position marker.
func (b *Bridge) LastTimestamp() int64 { return b.lastTimestamp }

// Run executes the loop until the context is cancelled or a fatal error
// occurs (device misconfiguration never reaches here; a second
// consecutive authentication failure does).
func (b *Bridge) Run(ctx context.Context) error {
	b.notifier.Notify(ctx, speech.LineStartup())

	for {
		b.setState(StateIdle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.cycleDelay):
		}

		if err := b.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// cycle runs one poll-and-maybe-dispatch pass. Its error return is fatal;
// turn-level failures are logged and absorbed here.
func (b *Bridge) cycle(ctx context.Context) error {
	b.setState(StatePolling)
	snap, err := b.pollWithRecovery(ctx)
	if err != nil {
		return err
	}

	if !snap.NewerThan(b.lastTimestamp) {
		return nil
	}
	// Advance strictly monotonically, for commands and normal queries
	// alike, so a command utterance is never re-processed next cycle.
	b.lastTimestamp = snap.Timestamp
	b.log.Info("bridge: new query t=%d %q", snap.Timestamp, snap.Query)

	cmd := b.parser.Interpret(snap.Query)
	switch cmd.Type {
	case domain.CommandStop:
		b.haltPlayback(ctx)
		return nil
	case domain.CommandAdvancedOn:
		b.haltPlayback(ctx)
		b.mode = domain.ModeAdvancedOn
		b.notifier.Notify(ctx, speech.LineAdvancedOn())
		return nil
	case domain.CommandAdvancedOff:
		b.haltPlayback(ctx)
		b.mode = domain.ModeAdvancedOff
		b.notifier.Notify(ctx, speech.LineAdvancedOff())
		return nil
	}

	if b.mode == domain.ModeAdvancedOff {
		b.log.Debug("bridge: advanced mode off, leaving %q to the speaker", snap.Query)
		return nil
	}

	// Crash-only turn: any failure below abandons the turn and the loop
	// picks up on its next cycle. The reply cursor is turn-scoped, so
	// there is no partial state to clean up.
	if err := b.runTurn(ctx, snap); err != nil {
		b.log.Error("bridge: turn abandoned: %v", err)
		b.notifier.NotifyUrgent(ctx, fmt.Sprintf("turn failed: %v", err))
	}
	return nil
}

// pollWithRecovery fetches the latest snapshot, spending at most one full
// re-login on failure. A failure of the recovery login or of the re-issued
// poll is fatal: the loop must not thrash against a dead session.
func (b *Bridge) pollWithRecovery(ctx context.Context) (domain.QuerySnapshot, error) {
	snap, err := b.poller.LatestQuery(ctx)
	if err == nil {
		return snap, nil
	}

	b.setState(StateAuthenticating)
	b.log.Warn("bridge: poll failed (%v), renewing session", err)
	if rerr := b.renewer.RenewSession(ctx); rerr != nil {
		return domain.QuerySnapshot{}, fmt.Errorf("bridge: session renewal after poll failure: %w", rerr)
	}

	snap, err = b.poller.LatestQuery(ctx)
	if err != nil {
		return domain.QuerySnapshot{}, fmt.Errorf("bridge: poll failed again after renewal: %w", err)
	}
	return snap, nil
}

// runTurn relays one query: interrupt the speaker, dispatch to chat,
// stream the reply and speak the final fragment.
func (b *Bridge) runTurn(ctx context.Context, snap domain.QuerySnapshot) error {
	b.setState(StateDispatching)

	b.haltPlayback(ctx)
	b.speak(ctx, speech.LineInterrupt())

	if preview := strings.TrimSpace(snap.AnswerPreview); preview != "" {
		b.notifier.Notify(ctx, speech.LineSpeakerAnswer(preview))
	} else {
		b.notifier.Notify(ctx, speech.LineSpeakerSilent())
	}

	query := snap.Query
	if b.prompt != "" {
		query += "，" + b.prompt
	}

	stream, err := b.chat.Ask(ctx, query)
	if err != nil {
		return err
	}

	b.setState(StateStreaming)
	b.notifier.Notify(ctx, speech.LineBotAnswer())

	final, err := b.driver.Drive(ctx, stream, func(f domain.Fragment) error {
		return b.notifier.Notify(ctx, f.Text)
	})
	if err != nil {
		return err
	}

	// Speak only the final fragment's text — the last unseen suffix, not
	// the full message. Preserved source behavior; see DESIGN.md.
	b.speak(ctx, final.Text)
	return nil
}

// haltPlayback pauses the speaker if it is currently playing. Playback
// errors are logged and swallowed: failing to silence the speaker is
// lower severity than failing to detect the next query.
func (b *Bridge) haltPlayback(ctx context.Context) {
	playing, err := b.player.IsPlaying(ctx)
	if err != nil {
		b.log.Warn("bridge: playback status: %v", err)
		return
	}
	if !playing {
		return
	}
	if err := b.player.Pause(ctx); err != nil {
		b.log.Warn("bridge: pausing playback: %v", err)
	}
}

// speak plays text on the speaker, swallowing failures per the playback
// error policy.
func (b *Bridge) speak(ctx context.Context, text string) {
	if err := b.voice.Say(ctx, text); err != nil {
		b.log.Warn("bridge: tts: %v", err)
	}
}

func (b *Bridge) setState(s State) {
	if b.state != s {
		b.log.Debug("bridge: %s -> %s", b.state, s)
		b.state = s
	}
}
