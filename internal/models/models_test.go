package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiscoveryMode(t *testing.T) {
	mode, err := ParseDiscoveryMode("")
	require.NoError(t, err)
	assert.Equal(t, DiscoveryBalanced, mode)

	mode, err = ParseDiscoveryMode("adventurous")
	require.NoError(t, err)
	assert.Equal(t, DiscoveryAdventurous, mode)

	_, err = ParseDiscoveryMode("wild")
	assert.Error(t, err)
}

func TestParsedFestivalHelpers(t *testing.T) {
	f := ParsedFestival{Lineup: []LineupDay{
		{Date: "2025-07-01", List: []LineupEntry{{ArtistName: "A"}, {ArtistName: "B"}}},
		{Date: "2025-07-02", List: []LineupEntry{{ArtistName: "A"}, {ArtistName: "C"}}},
	}}

	assert.Equal(t, 4, f.EntryCount())
	assert.Equal(t, []string{"A", "B", "C"}, f.ArtistNames())
}
