package reconcile

import (
	"testing"

	"github.com/guidesync/guidesync/pkg/xmltv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact", "CNN", "CNN", 1.0},
		{"exact after case fold and trim", "BBC One", " bbc one ", 1.0},
		{"containment", "CNN", "CNN International", 0.8},
		{"containment reversed", "CNN International", "CNN", 0.8},
		{"jaccard half", "discovery channel", "discovery science", 1.0 / 3.0},
		{"jaccard two of three", "bbc one hd", "bbc two hd", 0.5},
		{"no overlap", "CNN", "MTV", 0.0},
		{"empty side", "", "CNN", 0.0},
		{"both empty", "", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"BBC One", "bbc one hd"},
		{"Discovery Channel", "National Geographic Channel"},
		{"CNN", "CNN International"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "asymmetric for %v", p)
	}
}

func epgChannel(id, name string) *xmltv.Channel {
	return &xmltv.Channel{ID: id, DisplayName: name}
}

func TestEngine_Run_BestMatchWins(t *testing.T) {
	engine := &Engine{Threshold: 0.8, Strict: true}

	matches := engine.Run(
		[]Candidate{{ID: "ch1", Name: "BBC One"}},
		[]*xmltv.Channel{
			epgChannel("bbc2", "BBC Two"),
			epgChannel("bbc1", "Bbc One"),
			epgChannel("bbc1hd", "BBC One HD"),
		},
	)

	require.Len(t, matches, 1)
	assert.Equal(t, "bbc1", matches[0].EpgID)
	assert.Equal(t, 1.0, matches[0].Score)
}

func TestEngine_Run_FirstSeenWinsTies(t *testing.T) {
	engine := &Engine{Threshold: 0.6}

	// Both EPG channels contain the candidate name: identical 0.8 scores.
	matches := engine.Run(
		[]Candidate{{ID: "ch1", Name: "CNN"}},
		[]*xmltv.Channel{
			epgChannel("cnn.intl", "CNN International"),
			epgChannel("cnn.us", "CNN USA"),
		},
	)

	require.Len(t, matches, 1)
	assert.Equal(t, "cnn.intl", matches[0].EpgID)
}

func TestEngine_Run_ThresholdGates(t *testing.T) {
	epg := []*xmltv.Channel{epgChannel("x", "alpha beta gamma delta")}
	// Candidate shares 3 of 5 union tokens: score 0.6.
	candidates := []Candidate{{ID: "ch1", Name: "alpha beta gamma epsilon"}}

	t.Run("automap excludes exact threshold score", func(t *testing.T) {
		engine := &Engine{Threshold: 0.6}
		assert.Empty(t, engine.Run(candidates, epg))
	})

	t.Run("automap accepts above threshold", func(t *testing.T) {
		engine := &Engine{Threshold: 0.5}
		assert.Len(t, engine.Run(candidates, epg), 1)
	})

	t.Run("strict sync includes exact threshold score", func(t *testing.T) {
		engine := &Engine{Threshold: 0.6, Strict: true}
		assert.Len(t, engine.Run(candidates, epg), 1)
	})

	t.Run("strict sync rejects below threshold", func(t *testing.T) {
		engine := &Engine{Threshold: 0.8, Strict: true}
		assert.Empty(t, engine.Run(candidates, epg))
	})
}

func TestEngine_Run_ContainmentBelowStrictThresholdStaysUnmapped(t *testing.T) {
	// Containment scores 0.8, which passes >= 0.8 but not > 0.8.
	engine := &Engine{Threshold: 0.8, Strict: true}
	matches := engine.Run(
		[]Candidate{{ID: "ch1", Name: "CNN"}},
		[]*xmltv.Channel{epgChannel("cnn", "CNN International")},
	)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.8, matches[0].Score, 1e-9)

	automap := &Engine{Threshold: 0.8}
	assert.Empty(t, automap.Run(
		[]Candidate{{ID: "ch1", Name: "CNN"}},
		[]*xmltv.Channel{epgChannel("cnn", "CNN International")},
	))
}

func TestIconFor(t *testing.T) {
	channels := []*xmltv.Channel{
		{ID: "a", Icon: "http://example.com/a.png"},
		{ID: "b"},
	}
	assert.Equal(t, "http://example.com/a.png", IconFor(channels, "a"))
	assert.Empty(t, IconFor(channels, "b"))
	assert.Empty(t, IconFor(channels, "missing"))
}
