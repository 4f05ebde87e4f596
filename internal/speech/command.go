package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Compile-time interface check.
var _ domain.Voice = (*CommandVoice)(nil)

// DefaultTTSBinary is the local CLI used when cloud TTS is disabled.
const DefaultTTSBinary = "micli"

// ttsCommandByHardware maps speaker hardware models to the micli TTS
// command code for that model.
var ttsCommandByHardware = map[string]string{
	"L05B":  "5-3", // XiaoAi Speaker Play
	"L05C":  "5-3", // XiaoAi Speaker Play (enhanced)
	"L06A":  "5-1", // XiaoAi Speaker
	"L17A":  "7-3", // XiaoAi Speaker Sound Pro
	"LX01":  "5-1", // XiaoAi Speaker mini
	"LX04":  "5-1", // XiaoAi Touchscreen Speaker
	"LX05A": "5-1", // XiaoAi Speaker (remote edition)
	"LX06":  "5-1", // XiaoAi Speaker Pro
	"LX5A":  "5-1", // XiaoAi Speaker (remote edition)
	"M03A":  "7-3", // XiaoAi Sound Move
	"S12A":  "5-1", // XiaoAi Speaker
	"X08E":  "7-3", // Redmi Touchscreen Speaker Pro
}

// TTSCommandFor returns the micli command code for a hardware model,
// falling back to "7-3" for unlisted models.
func TTSCommandFor(hardware string) string {
	if code, ok := ttsCommandByHardware[hardware]; ok {
		return code
	}
	return "7-3"
}

// CommandVoice speaks by shelling out to an external CLI (micli). Used
// when the cloud TTS call is disabled by configuration.
type CommandVoice struct {
	bin  string
	code string
	log  *logger.Logger
}

// NewCommandVoice creates a command-backed voice for the given hardware.
func NewCommandVoice(bin, hardware string, log *logger.Logger) *CommandVoice {
	if bin == "" {
		bin = DefaultTTSBinary
	}
	return &CommandVoice{
		bin:  bin,
		code: TTSCommandFor(hardware),
		log:  log,
	}
}

// Say runs the external TTS command and waits for it to finish.
func (v *CommandVoice) Say(ctx context.Context, text string) error {
	v.log.Debug("speech: %s %s %q", v.bin, v.code, text)
	out, err := exec.CommandContext(ctx, v.bin, v.code, text).CombinedOutput()
	if err != nil {
		return fmt.Errorf("speech: %s: %w (%s)", v.bin, err, truncate(string(out), 120))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
