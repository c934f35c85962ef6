// internal/models/artist.go
package models

import "time"

// CatalogArtist is the catalog view of an artist.
type CatalogArtist struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Genres        []string `json:"genres"`
	ImageURL      string   `json:"imageUrl"`
	Popularity    int      `json:"popularity"`
	FollowerCount int      `json:"followerCount"`
	CanonicalURL  string   `json:"canonicalUrl"`
}

// AIArtist is the AI view of an artist.
type AIArtist struct {
	Name           string         `json:"name"`
	Genre          []string       `json:"genre"`
	Description    string         `json:"description"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	SocialLinks    SocialLinks    `json:"socialLinks"`
	StreamingLinks StreamingLinks `json:"streamingLinks"`
	Popularity     *int           `json:"popularity,omitempty"`
}

type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

type StreamingLinks struct {
	Spotify    string `json:"spotify,omitempty"`
	AppleMusic string `json:"appleMusic,omitempty"`
	YouTube    string `json:"youtube,omitempty"`
	SoundCloud string `json:"soundcloud,omitempty"`
	Bandcamp   string `json:"bandcamp,omitempty"`
	Deezer     string `json:"deezer,omitempty"`
}

// Artist is the reconciled record handed to persistence.
type Artist struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Genre          []string       `json:"genre"`
	Description    string         `json:"description"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	CatalogID      string         `json:"catalogId,omitempty"`
	Popularity     *int           `json:"popularity,omitempty"`
	FollowerCount  int            `json:"followerCount,omitempty"`
	SocialLinks    SocialLinks    `json:"socialLinks"`
	StreamingLinks StreamingLinks `json:"streamingLinks"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Summary is the roster form used by recommendations.
func (a *Artist) Summary() ArtistSummary {
	return ArtistSummary{ID: a.ID, Name: a.Name, Genre: a.Genre, Description: a.Description}
}
