// internal/models/festival.go
package models

import "time"

// ParsedFestival is the shape extracted from raw festival pages and files.
type ParsedFestival struct {
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Description string      `json:"description,omitempty"`
	Website     string      `json:"website,omitempty"`
	Lineup      []LineupDay `json:"lineup"`
}

type LineupDay struct {
	Date string        `json:"date"`
	List []LineupEntry `json:"list"`
}

type LineupEntry struct {
	ArtistName string `json:"artistName"`
	Stage      string `json:"stage,omitempty"`
	Time       string `json:"time,omitempty"`
}

// Festival is a ParsedFestival with a persistent identity.
type Festival struct {
	ID string `json:"id"`
	ParsedFestival
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntryCount returns the number of lineup entries across all days.
func (p *ParsedFestival) EntryCount() int {
	n := 0
	for _, d := range p.Lineup {
		n += len(d.List)
	}
	return n
}

// ArtistNames lists every lineup artist once, in lineup order.
func (p *ParsedFestival) ArtistNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, d := range p.Lineup {
		for _, e := range d.List {
			if _, ok := seen[e.ArtistName]; ok {
				continue
			}
			seen[e.ArtistName] = struct{}{}
			names = append(names, e.ArtistName)
		}
	}
	return names
}
