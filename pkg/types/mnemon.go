package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mnemon is a user's personal memory of a Work: when they finished it, how it
// felt, and free-form notes. Every mnemon references exactly one Work; a
// mnemon whose work no longer resolves is silently excluded from display.
type Mnemon struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// WorkID references the Work this memory is about.
	WorkID string `json:"work_id"`

	// FinishedDate is a free-form date string for when the user finished
	// the work. Optional.
	FinishedDate string `json:"finished_date,omitempty"`

	// Feelings holds up to MaxFeelings names from the feelings taxonomy,
	// without duplicates.
	Feelings []string `json:"feelings,omitempty"`

	// Notes holds the user's notes, one entry per logical line.
	Notes []string `json:"notes,omitempty"`

	// CreatedAt is when the mnemon was created. Set once.
	CreatedAt time.Time `json:"created_at"`
}

// NewMnemon creates a Mnemon for the given work.
func NewMnemon(workID, finishedDate string, feelings, notes []string) *Mnemon {
	return &Mnemon{
		ID:           uuid.NewString(),
		WorkID:       workID,
		FinishedDate: finishedDate,
		Feelings:     feelings,
		Notes:        notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks the mnemon's field invariants: a work reference must be
// present, feelings must come from the taxonomy with no duplicates and at most
// MaxFeelings entries, and notes must be trimmed non-empty lines.
func (m *Mnemon) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("mnemon ID is required")
	}
	if m.WorkID == "" {
		return fmt.Errorf("mnemon work ID is required")
	}
	if len(m.Feelings) > MaxFeelings {
		return fmt.Errorf("at most %d feelings allowed, got %d", MaxFeelings, len(m.Feelings))
	}
	seen := make(map[string]bool, len(m.Feelings))
	for _, f := range m.Feelings {
		if !ValidFeeling(f) {
			return fmt.Errorf("unknown feeling %q", f)
		}
		if seen[f] {
			return fmt.Errorf("duplicate feeling %q", f)
		}
		seen[f] = true
	}
	for _, n := range m.Notes {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("notes must not contain empty lines")
		}
		if n != strings.TrimSpace(n) {
			return fmt.Errorf("notes must be trimmed")
		}
	}
	return nil
}

// SplitNotes turns free text into note lines: one note per non-empty line,
// whitespace trimmed.
func SplitNotes(text string) []string {
	var notes []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			notes = append(notes, line)
		}
	}
	return notes
}
