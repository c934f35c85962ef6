package extractlineup

import (
	"strings"

	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/merge"
	"festival-workers/internal/models"
)

type entryKey struct {
	artist string
	time   string
}

func keyOf(e models.LineupEntry) entryKey {
	return entryKey{artist: merge.Fold(e.ArtistName), time: merge.Fold(e.Time)}
}

// fillStage keeps the first entry and borrows the duplicate's stage when
// the kept one has none.
func fillStage(kept *models.LineupEntry, incoming models.LineupEntry) {
	if strings.TrimSpace(kept.Stage) == "" {
		kept.Stage = strings.TrimSpace(incoming.Stage)
	}
}

// mergeFestivals folds partial extractions, in order, into one festival.
// Days are grouped by date in first-seen order and entries are unique per
// (date, artist, time).
func mergeFestivals(parts []models.ParsedFestival) (*models.ParsedFestival, error) {
	out := &models.ParsedFestival{Lineup: []models.LineupDay{}}

	var names, locations, descriptions, websites []string
	days := make(map[string]int)
	var seen []map[entryKey]int

	for _, p := range parts {
		names = append(names, p.Name)
		locations = append(locations, p.Location)
		descriptions = append(descriptions, p.Description)
		websites = append(websites, p.Website)

		for _, day := range p.Lineup {
			dk := merge.Fold(day.Date)
			idx, ok := days[dk]
			if !ok {
				idx = len(out.Lineup)
				days[dk] = idx
				out.Lineup = append(out.Lineup, models.LineupDay{
					Date: strings.TrimSpace(day.Date),
					List: []models.LineupEntry{},
				})
				seen = append(seen, make(map[entryKey]int))
			}
			out.Lineup[idx].List = merge.AppendUnique(out.Lineup[idx].List, seen[idx], cleanEntries(day.List), keyOf, fillStage)
		}
	}

	out.Name = strings.TrimSpace(merge.FirstNonEmpty(names...))
	out.Location = strings.TrimSpace(merge.FirstNonEmpty(locations...))
	out.Description = strings.TrimSpace(merge.FirstNonEmpty(descriptions...))
	out.Website = strings.TrimSpace(merge.FirstNonEmpty(websites...))

	if out.Name == "" {
		return nil, apperrors.NewMergeConflictError("name")
	}
	return out, nil
}

// cleanEntries trims fields and drops entries without an artist.
func cleanEntries(list []models.LineupEntry) []models.LineupEntry {
	out := make([]models.LineupEntry, 0, len(list))
	for _, e := range list {
		e.ArtistName = strings.TrimSpace(e.ArtistName)
		if e.ArtistName == "" {
			continue
		}
		e.Stage = strings.TrimSpace(e.Stage)
		e.Time = strings.TrimSpace(e.Time)
		out = append(out, e)
	}
	return out
}
