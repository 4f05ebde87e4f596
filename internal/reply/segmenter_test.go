package reply

import (
	"strings"
	"testing"

	"github.com/hammamikhairi/minarelay/internal/domain"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"typing marker stripped", "Hello" + TypingMarker, "Hello"},
		{"marker and whitespace", "  Hello " + TypingMarker + " ", "Hello"},
		{"no marker", "Hello there.", "Hello there."},
		{"marker only", TypingMarker, ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSegmenterEmitsUnseenSuffixes(t *testing.T) {
	seg := NewSegmenter()
	snapshots := []string{
		"Hello" + TypingMarker,
		"Hello there" + TypingMarker,
		"Hello there, friend.",
	}
	wantTexts := []string{"Hello", " there", ", friend."}

	var got []domain.Fragment
	for _, s := range snapshots {
		if frag, ok := seg.Feed(s); ok {
			got = append(got, frag)
		}
	}

	if len(got) != len(wantTexts) {
		t.Fatalf("got %d fragments, want %d: %+v", len(got), len(wantTexts), got)
	}
	for i, frag := range got {
		if frag.Text != wantTexts[i] {
			t.Errorf("fragment %d = %q, want %q", i, frag.Text, wantTexts[i])
		}
		wantFinal := i == len(wantTexts)-1
		if frag.Final != wantFinal {
			t.Errorf("fragment %d final = %t, want %t", i, frag.Final, wantFinal)
		}
	}

	// Completeness: concatenated fragments reproduce the final message.
	var b strings.Builder
	for _, frag := range got {
		b.WriteString(frag.Text)
	}
	if b.String() != "Hello there, friend." {
		t.Errorf("concatenation = %q, want %q", b.String(), "Hello there, friend.")
	}
	if seg.Text() != "Hello there, friend." {
		t.Errorf("Text() = %q", seg.Text())
	}
}

func TestSegmenterSkipsDuplicateSnapshots(t *testing.T) {
	seg := NewSegmenter()

	if _, ok := seg.Feed("Same" + TypingMarker); !ok {
		t.Fatal("first snapshot should emit")
	}
	if frag, ok := seg.Feed("Same" + TypingMarker); ok {
		t.Fatalf("identical snapshot emitted %+v, want nothing", frag)
	}
	// Differs only by the marker and whitespace — still a duplicate
	// after cleaning.
	if frag, ok := seg.Feed("  Same  " + TypingMarker); ok {
		t.Fatalf("whitespace variant emitted %+v, want nothing", frag)
	}
}

func TestSegmenterIgnoresNonPrefixSnapshots(t *testing.T) {
	seg := NewSegmenter()
	seg.Feed("Hello there" + TypingMarker)

	// A snapshot that does not extend the previous text contributes
	// nothing and must not move the cursor.
	if frag, ok := seg.Feed("Completely different" + TypingMarker); ok {
		t.Fatalf("non-prefix snapshot emitted %+v", frag)
	}
	if seg.Text() != "Hello there" {
		t.Errorf("cursor moved to %q", seg.Text())
	}

	// The stream can still complete from the held cursor.
	frag, ok := seg.Feed("Hello there, friend.")
	if !ok || !frag.Final || frag.Text != ", friend." {
		t.Fatalf("got %+v ok=%t, want final %q", frag, ok, ", friend.")
	}
}

func TestSegmenterExactlyOneFinal(t *testing.T) {
	seg := NewSegmenter()
	seg.Feed("Done.")
	if !seg.Done() {
		t.Fatal("expected segmenter done after unmarked snapshot")
	}
	// Further input is ignored once a final fragment was emitted.
	if frag, ok := seg.Feed("Done. More text."); ok {
		t.Fatalf("post-final snapshot emitted %+v", frag)
	}
}

func TestSegmenterSkipsEmptySnapshots(t *testing.T) {
	seg := NewSegmenter()
	if frag, ok := seg.Feed(TypingMarker); ok {
		t.Fatalf("marker-only snapshot emitted %+v", frag)
	}
	if seg.Done() {
		t.Fatal("empty snapshot must not finish the turn")
	}
}

func TestEndsAtBoundary(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"你好。", true},
		{"好的，", true},
		{"Sure thing.", true},
		{"really?", true},
		{"mid sentence", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := EndsAtBoundary(tt.in); got != tt.want {
				t.Errorf("EndsAtBoundary(%q) = %t, want %t", tt.in, got, tt.want)
			}
		})
	}
}
