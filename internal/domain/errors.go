package domain

import "errors"

// Sentinel errors used across layers.
var (
	// ErrAuthExpired means the upstream rejected the session artifacts.
	// The orchestrator answers with exactly one re-login per cycle; a
	// second consecutive occurrence is fatal.
	ErrAuthExpired = errors.New("session expired")

	// ErrDeviceNotFound means the configured hardware model matched no
	// registered device. Fatal at startup, never retried.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrChatDispatch covers failures opening or sending to the chat
	// channel. Turn-scoped: the current turn is abandoned, the loop
	// continues.
	ErrChatDispatch = errors.New("chat dispatch failed")

	// ErrReplyTimeout means the reply stream hit the bounded turn wait
	// without a final fragment. Treated like any chat failure.
	ErrReplyTimeout = errors.New("reply stream timed out")

	// ErrReplyTruncated means the reply stream ended without ever
	// signaling completion.
	ErrReplyTruncated = errors.New("reply stream ended before completion")
)
