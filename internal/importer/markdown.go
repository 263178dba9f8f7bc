// Package importer reads and writes the journal's Markdown interchange
// format: one file per mnemon, YAML frontmatter for the work and mnemon
// metadata, notes as list items in the body.
package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/mnemon/pkg/types"
)

// Entry pairs a work with one mnemon for export and import.
type Entry struct {
	Work   *types.Work
	Mnemon *types.Mnemon
}

// frontmatter is the YAML header of an exported entry.
type frontmatter struct {
	Title      string   `yaml:"title"`
	WorkType   string   `yaml:"work_type"`
	Year       int      `yaml:"year,omitempty"`
	Provider   string   `yaml:"provider,omitempty"`
	ProviderID string   `yaml:"provider_id,omitempty"`
	Cover      string   `yaml:"cover,omitempty"`
	ThemeMusic string   `yaml:"theme_music,omitempty"`
	Finished   string   `yaml:"finished,omitempty"`
	Feelings   []string `yaml:"feelings,omitempty"`
	Created    string   `yaml:"created,omitempty"`
}

// ExportEntry renders an entry as a Markdown document with YAML frontmatter.
func ExportEntry(e Entry) ([]byte, error) {
	if e.Work == nil || e.Mnemon == nil {
		return nil, fmt.Errorf("entry requires both work and mnemon")
	}

	fm := frontmatter{
		Title:      e.Work.TitleEn,
		WorkType:   string(e.Work.WorkType),
		Year:       e.Work.ReleaseYear,
		Cover:      e.Work.CoverImageURI,
		ThemeMusic: e.Work.ThemeMusicURI,
		Finished:   e.Mnemon.FinishedDate,
		Feelings:   e.Mnemon.Feelings,
	}
	if e.Work.ProviderRef != nil {
		fm.Provider = e.Work.ProviderRef.Source
		fm.ProviderID = e.Work.ProviderRef.ExternalID
	}
	if !e.Mnemon.CreatedAt.IsZero() {
		fm.Created = e.Mnemon.CreatedAt.UTC().Format(time.RFC3339)
	}

	fmBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmBytes)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", e.Work.TitleEn)
	if len(e.Mnemon.Notes) > 0 {
		b.WriteString("\n")
		for _, note := range e.Mnemon.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}
	return []byte(b.String()), nil
}

// FileName derives a stable slugged file name for an entry, e.g.
// "spirited-away-2001.md".
func FileName(e Entry) string {
	slug := slugify(e.Work.TitleEn)
	if slug == "" {
		slug = e.Mnemon.ID
	}
	if e.Work.ReleaseYear > 0 {
		return fmt.Sprintf("%s-%d.md", slug, e.Work.ReleaseYear)
	}
	return slug + ".md"
}

// ParseEntry parses an exported Markdown document back into a work and
// mnemon. Both get fresh IDs; identity across installs comes from the
// provider reference, not the UUID. relativePath supplies a title fallback
// for files without frontmatter or an H1 heading.
func ParseEntry(content []byte, relativePath string) (*Entry, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	title := fm.Title
	if title == "" {
		title = extractH1(body)
	}
	if title == "" {
		title = titleFromPath(relativePath)
	}
	if title == "" {
		return nil, fmt.Errorf("no title in %s", relativePath)
	}

	workType := types.WorkType(fm.WorkType)
	if !workType.Valid() {
		workType = types.WorkTypeMovie
	}

	var work *types.Work
	if fm.Provider != "" && fm.ProviderID != "" {
		ref := types.NewProviderRef(fm.Provider, fm.ProviderID)
		work = types.NewWorkFromProvider(workType, title, fm.Year, fm.Cover, fm.ThemeMusic, ref)
	} else {
		work = types.NewManualWork(workType, title, fm.Year)
		work.CoverImageURI = fm.Cover
		work.ThemeMusicURI = fm.ThemeMusic
	}

	feelings := make([]string, 0, len(fm.Feelings))
	for _, f := range fm.Feelings {
		if types.ValidFeeling(f) && len(feelings) < types.MaxFeelings {
			feelings = append(feelings, f)
		}
	}

	mnemon := types.NewMnemon(work.ID, fm.Finished, feelings, extractNotes(body))
	if created := parseCreated(fm.Created); !created.IsZero() {
		mnemon.CreatedAt = created
		work.CreatedAt = created
	}

	return &Entry{Work: work, Mnemon: mnemon}, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns a zero frontmatter and the full text when no
// frontmatter is found.
func splitFrontmatter(text string) (frontmatter, string, error) {
	var fm frontmatter

	scanner := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fm, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return fm, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return frontmatter{}, text, fmt.Errorf("invalid YAML: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// extractNotes collects the body's list items as notes. Non-list lines
// (headings, blanks) are skipped; a file written by hand with bare lines
// still imports, each non-empty non-heading line becoming a note.
func extractNotes(body string) []string {
	var notes []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(trimmed, "- "):
			if note := strings.TrimSpace(trimmed[2:]); note != "" {
				notes = append(notes, note)
			}
		case strings.HasPrefix(trimmed, "* "):
			if note := strings.TrimSpace(trimmed[2:]); note != "" {
				notes = append(notes, note)
			}
		default:
			notes = append(notes, trimmed)
		}
	}
	return notes
}

// extractH1 returns the text of the first ATX heading (# ...) in the body.
func extractH1(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// titleFromPath derives a human-readable title from the file name.
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// parseCreated attempts the common timestamp layouts used in exports.
func parseCreated(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// slugify lowercases a title and collapses everything else to hyphens.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}
