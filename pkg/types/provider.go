package types

// ProviderRef identifies a work inside an external metadata provider
// (e.g. TMDB, RAWG). Used for exact-ID deduplication: two works with the same
// source and external ID are the same work.
type ProviderRef struct {
	// Source is the provider name, e.g. "tmdb" or "rawg".
	Source string `json:"source"`

	// ExternalID is the work's identifier within that provider.
	ExternalID string `json:"external_id"`
}

// NewProviderRef creates a ProviderRef.
func NewProviderRef(source, externalID string) ProviderRef {
	return ProviderRef{Source: source, ExternalID: externalID}
}

// Matches reports whether both source and external ID match exactly.
func (r ProviderRef) Matches(other ProviderRef) bool {
	return r.Source == other.Source && r.ExternalID == other.ExternalID
}
