package engine

import (
	"strings"
	"time"
)

const (
	readingWordsPerSecond = 4
	minNoteDisplay        = 3 * time.Second
	maxNoteDisplay        = 8 * time.Second
)

// NoteDisplayDuration estimates how long a note should stay on screen,
// scaled by word count and clamped to a comfortable range.
func NoteDisplayDuration(note string) time.Duration {
	words := len(strings.Fields(note))
	d := time.Duration(words) * time.Second / readingWordsPerSecond
	if d < minNoteDisplay {
		return minNoteDisplay
	}
	if d > maxNoteDisplay {
		return maxNoteDisplay
	}
	return d
}
