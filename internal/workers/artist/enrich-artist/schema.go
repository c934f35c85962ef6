package enrichartist

import (
	"encoding/json"
	"strings"
)

const schemaName = "artist"

var artistSchema = json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "genre", "description", "socialLinks", "streamingLinks"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "genre": {"type": "array", "items": {"type": "string"}},
    "description": {"type": "string"},
    "imageUrl": {"type": "string"},
    "popularity": {"type": "integer", "minimum": 0, "maximum": 100},
    "socialLinks": {
      "type": "object",
      "properties": {
        "website": {"type": "string"},
        "instagram": {"type": "string"},
        "twitter": {"type": "string"},
        "facebook": {"type": "string"},
        "tiktok": {"type": "string"},
        "youtube": {"type": "string"}
      }
    },
    "streamingLinks": {
      "type": "object",
      "properties": {
        "spotify": {"type": "string"},
        "appleMusic": {"type": "string"},
        "youtube": {"type": "string"},
        "soundcloud": {"type": "string"},
        "bandcamp": {"type": "string"},
        "deezer": {"type": "string"}
      }
    }
  }
}`)

const systemPrompt = `You are a music journalist completing artist profiles.
Answer with a single JSON object and nothing else.
Only give links you are confident belong to this exact artist; leave unknown fields empty.`

func buildPrompt(name, catalogID, extra string) string {
	var b strings.Builder
	b.WriteString("Describe the artist \"")
	b.WriteString(name)
	b.WriteString("\": a short description, their genres, social media links and streaming links.")
	if catalogID != "" {
		b.WriteString("\nSpotify artist id: ")
		b.WriteString(catalogID)
	}
	if extra != "" {
		b.WriteString("\nContext: ")
		b.WriteString(extra)
	}
	return b.String()
}
