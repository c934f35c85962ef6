// internal/models/recommendation.go
package models

import "fmt"

type DiscoveryMode string

const (
	DiscoveryConservative DiscoveryMode = "conservative"
	DiscoveryBalanced     DiscoveryMode = "balanced"
	DiscoveryAdventurous  DiscoveryMode = "adventurous"
)

// ParseDiscoveryMode validates a mode; empty means balanced.
func ParseDiscoveryMode(s string) (DiscoveryMode, error) {
	switch DiscoveryMode(s) {
	case "":
		return DiscoveryBalanced, nil
	case DiscoveryConservative, DiscoveryBalanced, DiscoveryAdventurous:
		return DiscoveryMode(s), nil
	default:
		return "", fmt.Errorf("discovery mode must be one of conservative, balanced, adventurous; got %q", s)
	}
}

type ArtistSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Genre       []string `json:"genre,omitempty"`
	Description string   `json:"description,omitempty"`
}

type Preferences struct {
	Genres            []string      `json:"genres,omitempty"`
	Comment           string        `json:"comment,omitempty"`
	LikedArtistIDs    []string      `json:"likedArtistIds,omitempty"`
	DislikedArtistIDs []string      `json:"dislikedArtistIds,omitempty"`
	DiscoveryMode     DiscoveryMode `json:"discoveryMode,omitempty"`
}

// Recommendation scores one roster artist. Score is always in [0,1].
type Recommendation struct {
	ArtistID   string   `json:"artistId"`
	ArtistName string   `json:"artistName"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Tags       []string `json:"tags,omitempty"`
}
