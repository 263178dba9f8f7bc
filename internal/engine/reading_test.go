package engine

import (
	"strings"
	"testing"
	"time"
)

func TestNoteDisplayDuration(t *testing.T) {
	cases := []struct {
		name string
		note string
		want time.Duration
	}{
		{"empty clamps to minimum", "", 3 * time.Second},
		{"short clamps to minimum", "loved it", 3 * time.Second},
		{"scales with word count", strings.Repeat("word ", 20), 5 * time.Second},
		{"long clamps to maximum", strings.Repeat("word ", 100), 8 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NoteDisplayDuration(tc.note); got != tc.want {
				t.Fatalf("NoteDisplayDuration = %v, want %v", got, tc.want)
			}
		})
	}
}
