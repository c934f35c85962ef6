// internal/workers/recommendation/recommend-artists/models.go
package recommendartists

import "festival-workers/internal/models"

type Input struct {
	Artists     []models.ArtistSummary `json:"artists"`
	Preferences models.Preferences     `json:"preferences"`
}

type Output struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Count           int                     `json:"count"`
}

// answer is the shape requested from the model.
type answer struct {
	Recommendations []struct {
		ArtistName string   `json:"artistName"`
		Score      float64  `json:"score"`
		Reasons    []string `json:"reasons"`
		Tags       []string `json:"tags"`
	} `json:"recommendations"`
}
