// Package conversation provides command interpretation for spoken
// utterances and console notification implementations.
package conversation

import (
	"strings"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Command phrases recognized on the speaker. Matching is strict-prefix and
// case-sensitive.
const (
	PhraseStop        = "停止"
	PhraseAdvancedOn  = "开启高级对话模式"
	PhraseAdvancedOff = "关闭高级对话模式"
)

type commandRule struct {
	prefix string
	cmd    domain.CommandType
}

// CommandParser intercepts control utterances before they reach the chat
// backend. It performs no I/O and mutates no state; the orchestrator owns
// the mode flag and the halt-playback side effect.
type CommandParser struct {
	log *logger.Logger

	// Evaluated top to bottom, first match wins. The order only matters
	// if prefixes ever overlap.
	rules []commandRule
}

// NewCommandParser creates a parser with the fixed command list.
func NewCommandParser(log *logger.Logger) *CommandParser {
	return &CommandParser{
		log: log,
		rules: []commandRule{
			{PhraseStop, domain.CommandStop},
			{PhraseAdvancedOn, domain.CommandAdvancedOn},
			{PhraseAdvancedOff, domain.CommandAdvancedOff},
		},
	}
}

// Interpret classifies one utterance. Anything that matches no command
// prefix passes through with the original text attached.
func (p *CommandParser) Interpret(query string) domain.Command {
	for _, rule := range p.rules {
		if strings.HasPrefix(query, rule.prefix) {
			p.log.Debug("conversation: command %s for %q", rule.cmd, query)
			return domain.Command{Type: rule.cmd}
		}
	}
	return domain.Command{Type: domain.CommandPassthrough, Query: query}
}
