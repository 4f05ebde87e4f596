package domain

import "context"

// Authenticator performs the vendor login handshake and returns fresh
// session artifacts. Implementations persist tokens durably; retry policy
// belongs to the orchestrator, which knows which operation failed.
type Authenticator interface {
	Login(ctx context.Context) (*SessionState, error)
}

// QuerySource fetches the latest-query snapshot from the speaker cloud.
// Implementations distinguish ErrAuthExpired from generic transport
// failure so the orchestrator does not thrash on every blip.
type QuerySource interface {
	LatestQuery(ctx context.Context) (QuerySnapshot, error)
}

// SessionRenewer discards the current session artifacts and rebuilds them
// through a full re-login. Called by the orchestrator when an
// authenticated call fails.
type SessionRenewer interface {
	RenewSession(ctx context.Context) error
}

// PlaybackController drives the speaker's media player.
type PlaybackController interface {
	IsPlaying(ctx context.Context) (bool, error)
	Pause(ctx context.Context) error
}

// Voice speaks text on the speaker. Implementations can go through the
// cloud TTS call or an external local command.
type Voice interface {
	Say(ctx context.Context, text string) error
}

// ReplySource yields the chat backend's raw reply snapshots for a single
// turn. Each snapshot contains the entire message so far, optionally
// suffixed with a transient typing marker. The sequence is finite and
// non-restartable.
type ReplySource interface {
	Next(ctx context.Context) (string, error)
}

// ChatBackend posts queries into the conversation channel and exposes the
// bot's in-progress reply as cumulative snapshots.
type ChatBackend interface {
	Open(ctx context.Context) error
	Ask(ctx context.Context, query string) (ReplySource, error)
}

// Notifier mirrors conversation progress to the operator console.
// Implementations can write plain text, colored output, or nothing.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
