// Package domain holds the core types shared by every layer of the relay:
// session artifacts, query snapshots, reply fragments and the conversation
// mode. It has no dependencies and performs no I/O.
package domain

// SessionState holds the authentication artifacts produced by one vendor
// login. It is rebuilt whole by a fresh login whenever an authenticated
// call fails; individual fields are never patched in place.
type SessionState struct {
	UserID       string
	DeviceID     string
	ServiceToken string
	Security     string // ssecurity from the handshake, kept for request signing
}

// QuerySnapshot is one poll result from the speaker's conversation log.
// Snapshots are produced fresh on every poll and compared only by
// Timestamp ordering.
type QuerySnapshot struct {
	Timestamp     int64  // position marker in milliseconds; 0 means "no record"
	Query         string // the newest spoken query
	AnswerPreview string // the speaker's own answer to it, when it gave one
}

// NewerThan reports whether the snapshot is strictly newer than the given
// position marker.
func (s QuerySnapshot) NewerThan(last int64) bool {
	return s.Timestamp > last
}

// Mode is the runtime toggle deciding whether detected queries are
// forwarded to the chat backend at all.
type Mode int

const (
	// ModeAdvancedOn forwards normal utterances to the chat backend.
	ModeAdvancedOn Mode = iota
	// ModeAdvancedOff lets the speaker answer on its own.
	ModeAdvancedOff
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	if m == ModeAdvancedOff {
		return "advanced_off"
	}
	return "advanced_on"
}

// Fragment is one append-only piece of the bot's reply, produced by the
// segmenter. Exactly one fragment per turn carries Final, and it is the
// last one emitted.
type Fragment struct {
	Text  string
	Final bool
}

// CommandType classifies a recognized control utterance.
type CommandType int

const (
	// CommandPassthrough means the utterance is a normal query.
	CommandPassthrough CommandType = iota
	// CommandStop halts whatever the speaker is currently playing.
	CommandStop
	// CommandAdvancedOn enables forwarding to the chat backend.
	CommandAdvancedOn
	// CommandAdvancedOff disables forwarding to the chat backend.
	CommandAdvancedOff
)

// String returns a human-readable command name.
func (c CommandType) String() string {
	switch c {
	case CommandStop:
		return "stop"
	case CommandAdvancedOn:
		return "advanced_on"
	case CommandAdvancedOff:
		return "advanced_off"
	default:
		return "passthrough"
	}
}

// Command is the result of interpreting one utterance. Query carries the
// original text for passthrough commands.
type Command struct {
	Type  CommandType
	Query string
}
