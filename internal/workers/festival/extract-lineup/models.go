// internal/workers/festival/extract-lineup/models.go
package extractlineup

import "festival-workers/internal/models"

type Input struct {
	// Inputs are http(s) URLs or data:<mime>;base64,<payload> files.
	Inputs []string `json:"inputs"`
}

type Output struct {
	Festival   models.ParsedFestival `json:"festival"`
	FestivalID string                `json:"festivalId,omitempty"`
	ChunkCount int                   `json:"chunkCount"`
	EntryCount int                   `json:"entryCount"`
}
