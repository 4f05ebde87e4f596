// Package reply converts the chat backend's full-text-replace stream into
// append-only fragments. Each upstream snapshot contains the entire
// message so far, optionally suffixed with a transient typing marker, and
// may repeat the previous snapshot verbatim while the bot is composing.
package reply

import (
	"strings"

	"github.com/hammamikhairi/minarelay/internal/domain"
)

// TypingMarker is the fixed trailing token the bot appends while it is
// still composing. Its absence on a snapshot signals completion.
const TypingMarker = "_Typing…_"

// SentenceBoundaries is the punctuation set recognized as sentence
// boundaries in emitted fragments.
var SentenceBoundaries = []rune{'，', '。', '？', '！', '；', '、', ',', '.', '?', '!', ';'}

// Clean strips the typing marker and surrounding whitespace from a raw
// snapshot.
func Clean(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, TypingMarker, ""))
}

// EndsAtBoundary reports whether the fragment ends on a recognized
// sentence boundary.
func EndsAtBoundary(fragment string) bool {
	runes := []rune(strings.TrimSpace(fragment))
	if len(runes) == 0 {
		return false
	}
	last := runes[len(runes)-1]
	for _, b := range SentenceBoundaries {
		if last == b {
			return true
		}
	}
	return false
}

// Segmenter turns cumulative snapshots into append-only fragments. It is a
// pure function of (previous text, next snapshot); no I/O. One Segmenter
// serves exactly one conversation turn and refuses input after the final
// fragment.
type Segmenter struct {
	prev string
	done bool
}

// NewSegmenter creates a segmenter with an empty cursor.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Feed consumes one raw snapshot and returns the newly completed fragment,
// if any. Rules, in order:
//   - after a final fragment, everything is ignored;
//   - a snapshot that cleans to the previous full text contributes nothing;
//   - a snapshot that does not extend the previous full text as a literal
//     prefix contributes nothing and does not move the cursor;
//   - otherwise the unseen suffix is emitted, marked final iff the raw
//     snapshot lacked the typing marker.
func (g *Segmenter) Feed(raw string) (domain.Fragment, bool) {
	if g.done {
		return domain.Fragment{}, false
	}

	cleaned := Clean(raw)
	if cleaned == "" || cleaned == g.prev {
		return domain.Fragment{}, false
	}
	if !strings.HasPrefix(cleaned, g.prev) {
		return domain.Fragment{}, false
	}

	suffix := cleaned[len(g.prev):]
	g.prev = cleaned

	final := !strings.Contains(raw, TypingMarker)
	if final {
		g.done = true
	}
	return domain.Fragment{Text: suffix, Final: final}, true
}

// Done reports whether the final fragment has been emitted.
func (g *Segmenter) Done() bool { return g.done }

// Text returns the full cleaned message accumulated so far. Concatenating
// every emitted fragment in order reproduces exactly this value.
func (g *Segmenter) Text() string { return g.prev }
