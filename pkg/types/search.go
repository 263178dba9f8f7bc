package types

// SearchResult is a single provider search hit: a potential Work the user can
// select. It carries everything needed to create the Work.
type SearchResult struct {
	// ProviderRef identifies the result for deduplication.
	ProviderRef ProviderRef `json:"provider_ref"`

	// Title is the work's display title.
	Title string `json:"title"`

	// Year is the release year, 0 when unknown.
	Year int `json:"year,omitempty"`

	// WorkType is the kind of media this result represents.
	WorkType WorkType `json:"work_type"`

	// CoverURL is the remote cover image URL, cached locally on selection.
	CoverURL string `json:"cover_url,omitempty"`

	// ThemeMusicURL is the remote theme music URL, cached locally on selection.
	ThemeMusicURL string `json:"theme_music_url,omitempty"`
}

// SearchPage is one page of search results with pagination metadata.
type SearchPage struct {
	// Results are the hits for this page.
	Results []SearchResult `json:"results"`

	// TotalCount is the number of results across all pages.
	TotalCount int `json:"total_count"`

	// Page is the current page number (0-indexed).
	Page int `json:"page"`

	// TotalPages is the number of pages available.
	TotalPages int `json:"total_pages"`
}

// HasNextPage reports whether more pages follow this one.
func (p *SearchPage) HasNextPage() bool {
	return p.Page+1 < p.TotalPages
}

// HasPreviousPage reports whether pages precede this one.
func (p *SearchPage) HasPreviousPage() bool {
	return p.Page > 0
}

// IsEmpty reports whether the page has no results.
func (p *SearchPage) IsEmpty() bool {
	return len(p.Results) == 0
}
