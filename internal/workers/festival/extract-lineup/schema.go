package extractlineup

import (
	"encoding/json"
	"strconv"
)

const schemaName = "festival"

var festivalSchema = json.RawMessage(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "location", "lineup"],
  "properties": {
    "name": {"type": "string"},
    "location": {"type": "string"},
    "description": {"type": "string"},
    "website": {"type": "string"},
    "lineup": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "list"],
        "properties": {
          "date": {"type": "string"},
          "list": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["artistName"],
              "properties": {
                "artistName": {"type": "string", "minLength": 1},
                "stage": {"type": "string"},
                "time": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`)

const systemPrompt = `You extract music festival information from web pages and documents.
Answer with a single JSON object and nothing else.
Use ISO dates (YYYY-MM-DD) and 24h times (HH:MM). Leave a field empty when the source does not state it.
Never invent artists that are not in the source.`

func extractionPrompt(part, parts int) string {
	prompt := `Extract the festival name, location, description, website and the full lineup from the attached sources.
Group the lineup by date; every entry has the artist name and, when given, the stage and start time.`
	if parts > 1 {
		prompt += "\nThe largest document was split into overlapping parts; this request covers part " +
			strconv.Itoa(part) + " of " + strconv.Itoa(parts) + ". Extract what this part contains."
	}
	return prompt
}

