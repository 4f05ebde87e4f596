// Package speech provides the voice implementations that play text on the
// speaker, plus the fixed spoken lines.
package speech

import (
	"context"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Voice = (*CloudVoice)(nil)
	_ domain.Voice = (*NoOp)(nil)
)

// Synthesizer is the cloud TTS call the CloudVoice delegates to.
type Synthesizer interface {
	TextToSpeech(ctx context.Context, text string) error
}

// CloudVoice speaks through the vendor's cloud TTS endpoint on the
// resolved device.
type CloudVoice struct {
	tts Synthesizer
	log *logger.Logger
}

// NewCloudVoice creates a cloud-backed voice.
func NewCloudVoice(tts Synthesizer, log *logger.Logger) *CloudVoice {
	return &CloudVoice{tts: tts, log: log}
}

// Say speaks text on the speaker.
func (v *CloudVoice) Say(ctx context.Context, text string) error {
	v.log.Debug("speech: cloud tts %q", text)
	return v.tts.TextToSpeech(ctx, text)
}

// NoOp is a voice that does nothing. Used in dry runs and tests.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a no-op voice.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Say does nothing.
func (n *NoOp) Say(ctx context.Context, text string) error {
	n.log.Debug("speech no-op: would say %q", text)
	return nil
}
