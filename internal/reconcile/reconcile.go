// Package reconcile matches catalog channel names against EPG channel
// display names using name similarity.
package reconcile

import (
	"strings"

	"github.com/guidesync/guidesync/pkg/xmltv"
)

// Similarity scores two channel names on lowercased, trimmed text:
// exact match scores 1.0, containment either way scores 0.8, anything
// else scores the Jaccard similarity of the whitespace token sets.
// Symmetric in its arguments.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		if a == "" {
			return 0.0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	return jaccard(tokenSet(a), tokenSet(b))
}

// tokenSet splits a lowercased name into its set of whitespace tokens.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes |intersection| / |union|, 0.0 when either set is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Candidate is a catalog channel up for matching.
type Candidate struct {
	ID   string
	Name string
}

// Match is an accepted association between a catalog channel and an EPG
// channel.
type Match struct {
	ChannelID string
	EpgID     string
	EpgName   string
	Score     float64
}

// Engine matches catalog channels against a parsed EPG channel list.
type Engine struct {
	// Threshold gates match acceptance; see the Strict flag.
	Threshold float64

	// Strict selects >= Threshold acceptance (the unattended sync
	// pipeline). When false acceptance is > Threshold (the exploratory
	// automap flow). The two gates are intentionally different kinds of
	// comparison and must not be unified.
	Strict bool
}

// epgEntry carries a guide channel with its name pre-normalized and
// pre-tokenized, so the inner scoring loop never re-tokenizes.
type epgEntry struct {
	id     string
	name   string
	normal string
	tokens map[string]struct{}
	icon   string
}

// Run scores every candidate against every EPG channel, keeping each
// candidate's best-scoring EPG channel (first seen wins ties), and
// returns the matches that pass the threshold gate. Candidates below
// threshold stay unmapped.
func (e *Engine) Run(candidates []Candidate, epgChannels []*xmltv.Channel) []Match {
	entries := make([]epgEntry, 0, len(epgChannels))
	for _, ch := range epgChannels {
		normal := strings.ToLower(strings.TrimSpace(ch.DisplayName))
		entries = append(entries, epgEntry{
			id:     ch.ID,
			name:   ch.DisplayName,
			normal: normal,
			tokens: tokenSet(normal),
			icon:   ch.Icon,
		})
	}

	var matches []Match
	for _, cand := range candidates {
		normal := strings.ToLower(strings.TrimSpace(cand.Name))
		tokens := tokenSet(normal)

		best := -1
		bestScore := 0.0
		for i, entry := range entries {
			score := scorePrepared(normal, tokens, entry)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 || !e.accept(bestScore) {
			continue
		}
		matches = append(matches, Match{
			ChannelID: cand.ID,
			EpgID:     entries[best].id,
			EpgName:   entries[best].name,
			Score:     bestScore,
		})
	}
	return matches
}

// IconFor returns the icon URL of the EPG channel with the given id.
func IconFor(epgChannels []*xmltv.Channel, epgID string) string {
	for _, ch := range epgChannels {
		if ch.ID == epgID {
			return ch.Icon
		}
	}
	return ""
}

// scorePrepared is Similarity with both sides already normalized and the
// token sets computed up front.
func scorePrepared(normal string, tokens map[string]struct{}, entry epgEntry) float64 {
	if normal == entry.normal {
		if normal == "" {
			return 0.0
		}
		return 1.0
	}
	if normal == "" || entry.normal == "" {
		return 0.0
	}
	if strings.Contains(normal, entry.normal) || strings.Contains(entry.normal, normal) {
		return 0.8
	}
	return jaccard(tokens, entry.tokens)
}

func (e *Engine) accept(score float64) bool {
	if e.Strict {
		return score >= e.Threshold
	}
	return score > e.Threshold
}
