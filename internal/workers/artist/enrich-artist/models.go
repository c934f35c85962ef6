// internal/workers/artist/enrich-artist/models.go
package enrichartist

import "festival-workers/internal/models"

type Input struct {
	ArtistName string `json:"artistName"`
	CatalogID  string `json:"catalogId,omitempty"`
	// Context disambiguates same-named artists, e.g. "festival: Sonar 2025".
	Context string `json:"context,omitempty"`
}

type Output struct {
	Artist         models.Artist `json:"artist"`
	CatalogMatched bool          `json:"catalogMatched"`
}

type EnrichOptions struct {
	CatalogID string
	Context   string
}
