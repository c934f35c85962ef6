package recommendartists

import (
	"encoding/json"
	"strings"

	"festival-workers/internal/models"
)

const schemaName = "recommendations"

// Scores carry no bounds here; out-of-range values are clamped afterwards.
var recommendationSchema = json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["recommendations"],
  "properties": {
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["artistName", "score"],
        "properties": {
          "artistName": {"type": "string", "minLength": 1},
          "score": {"type": "number"},
          "reasons": {"type": "array", "items": {"type": "string"}},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`)

const systemPrompt = `You recommend festival acts to a listener.
Score every artist you recommend between 0 and 1 and give short reasons.
Only use artist names exactly as they appear in the roster. Answer with a single JSON object.`

type rosterEntry struct {
	Name        string   `json:"name"`
	Genre       []string `json:"genre,omitempty"`
	Description string   `json:"description,omitempty"`
}

type listener struct {
	Genres        []string `json:"genres,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	Liked         []string `json:"likedArtists,omitempty"`
	Disliked      []string `json:"dislikedArtists,omitempty"`
	DiscoveryMode string   `json:"discoveryMode"`
}

// buildPrompt renders the roster and the listener profile. Liked and
// disliked ids are shown by roster name when they resolve.
func buildPrompt(artists []models.ArtistSummary, prefs models.Preferences, mode models.DiscoveryMode) (string, error) {
	names := make(map[string]string, len(artists))
	roster := make([]rosterEntry, 0, len(artists))
	for _, a := range artists {
		names[a.ID] = a.Name
		roster = append(roster, rosterEntry{Name: a.Name, Genre: a.Genre, Description: a.Description})
	}
	resolve := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if n, ok := names[id]; ok {
				out = append(out, n)
			} else {
				out = append(out, id)
			}
		}
		return out
	}

	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return "", err
	}
	listenerJSON, err := json.Marshal(listener{
		Genres:        prefs.Genres,
		Comment:       strings.TrimSpace(prefs.Comment),
		Liked:         resolve(prefs.LikedArtistIDs),
		Disliked:      resolve(prefs.DislikedArtistIDs),
		DiscoveryMode: string(mode),
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Festival roster:\n")
	b.Write(rosterJSON)
	b.WriteString("\n\nListener profile:\n")
	b.Write(listenerJSON)
	b.WriteString("\n\nRank the roster artists this listener should see. ")
	b.WriteString("The discovery mode steers how far from the listener's known taste to go.")
	return b.String(), nil
}
