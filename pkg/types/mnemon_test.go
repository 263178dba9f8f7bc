package types_test

import (
	"strings"
	"testing"

	"github.com/scrypster/mnemon/pkg/types"
)

func TestMnemonValidate_Valid(t *testing.T) {
	m := types.NewMnemon("work-1", "2024-03", []string{"Cozy", "Nostalgic"}, []string{"rainy sunday rewatch"})
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid mnemon, got %v", err)
	}
}

func TestMnemonValidate_RequiresWorkID(t *testing.T) {
	m := types.NewMnemon("", "", nil, nil)
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for missing work ID")
	}
}

func TestMnemonValidate_RejectsUnknownFeeling(t *testing.T) {
	m := types.NewMnemon("work-1", "", []string{"Furious"}, nil)
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for unknown feeling")
	}
}

func TestMnemonValidate_RejectsDuplicateFeelings(t *testing.T) {
	m := types.NewMnemon("work-1", "", []string{"Cozy", "Cozy"}, nil)
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for duplicate feeling")
	}
}

func TestMnemonValidate_RejectsTooManyFeelings(t *testing.T) {
	m := types.NewMnemon("work-1", "", []string{"Cozy", "Nostalgic", "Epic", "Chill", "Somber", "Uplifting"}, nil)
	if err := m.Validate(); err == nil {
		t.Fatalf("expected error for more than %d feelings", types.MaxFeelings)
	}
}

func TestMnemonValidate_RejectsEmptyNoteLines(t *testing.T) {
	m := types.NewMnemon("work-1", "", nil, []string{"good", "   "})
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for blank note line")
	}
}

func TestSplitNotes(t *testing.T) {
	notes := types.SplitNotes("  first line \n\n second line\n\t\n")
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d: %v", len(notes), notes)
	}
	if notes[0] != "first line" || notes[1] != "second line" {
		t.Errorf("notes not trimmed correctly: %v", notes)
	}
}

func TestValidFeeling_CoversTaxonomy(t *testing.T) {
	for _, f := range types.Feelings {
		if !types.ValidFeeling(f.Name) {
			t.Errorf("taxonomy feeling %q reported invalid", f.Name)
		}
	}
	if types.ValidFeeling("cozy") {
		t.Error("feeling names are case-sensitive; \"cozy\" should be invalid")
	}
}

func TestWorkTypeValid(t *testing.T) {
	for _, wt := range types.ValidWorkTypes {
		if !wt.Valid() {
			t.Errorf("work type %q reported invalid", wt)
		}
	}
	if types.WorkType("podcast").Valid() {
		t.Error("unknown work type reported valid")
	}
}

func TestProviderRefMatches(t *testing.T) {
	ref := types.NewProviderRef("tmdb", "129")
	if !ref.Matches(types.NewProviderRef("tmdb", "129")) {
		t.Error("identical refs should match")
	}
	if ref.Matches(types.NewProviderRef("tmdb", "130")) {
		t.Error("different external IDs should not match")
	}
	if ref.Matches(types.NewProviderRef("rawg", "129")) {
		t.Error("different sources should not match")
	}
}

func TestNewWorkFromProvider(t *testing.T) {
	ref := types.NewProviderRef("tmdb", "129")
	w := types.NewWorkFromProvider(types.WorkTypeMovie, "Spirited Away", 2001, "https://img/cover.jpg", "", ref)

	if w.ID == "" {
		t.Fatal("expected generated ID")
	}
	if w.Origin != types.OriginProvider {
		t.Errorf("expected provider origin, got %q", w.Origin)
	}
	if w.ProviderRef == nil || !w.ProviderRef.Matches(ref) {
		t.Error("provider ref not carried over")
	}
	if w.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewManualWork(t *testing.T) {
	w := types.NewManualWork(types.WorkTypeGame, "Outer Wilds", 2019)
	if w.Origin != types.OriginManual {
		t.Errorf("expected manual origin, got %q", w.Origin)
	}
	if w.ProviderRef != nil {
		t.Error("manual works must not carry a provider ref")
	}
}

func TestSearchPagePagination(t *testing.T) {
	page := &types.SearchPage{Results: make([]types.SearchResult, 10), TotalCount: 25, Page: 1, TotalPages: 3}
	if !page.HasNextPage() {
		t.Error("page 1 of 3 should have a next page")
	}
	if !page.HasPreviousPage() {
		t.Error("page 1 should have a previous page")
	}
	last := &types.SearchPage{Page: 2, TotalPages: 3}
	if last.HasNextPage() {
		t.Error("last page should not have a next page")
	}
	if !last.IsEmpty() {
		t.Error("page without results should be empty")
	}
}

func TestSplitNotes_AllBlank(t *testing.T) {
	if notes := types.SplitNotes(strings.Repeat("\n \t\n", 3)); notes != nil {
		t.Errorf("expected nil for blank input, got %v", notes)
	}
}
