package spotify

import (
	"strings"
	"unicode"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// Confidence thresholds for MatchTrack. A candidate must clear all three.
const (
	minTitleSimilarity   = 0.65
	minArtistSimilarity  = 0.55
	minOverallSimilarity = 0.70

	titleWeight  = 0.7
	artistWeight = 0.3

	matchCandidates = 5
)

// releaseQualifiers never distinguish one recording from another.
var releaseQualifiers = map[string]bool{
	"clean": true, "deluxe": true, "edition": true, "edit": true,
	"explicit": true, "feat": true, "featuring": true, "ft": true,
	"live": true, "mix": true, "mono": true, "radio": true,
	"remaster": true, "remastered": true, "stereo": true, "version": true,
}

// splitMatchQuery parses "Artist - Title". The first " - " separates the
// parts; a bare '-' is accepted when no spaced separator exists.
func splitMatchQuery(query string) (artist, title string, ok bool) {
	artist, title, found := strings.Cut(query, " - ")
	if !found {
		artist, title, found = strings.Cut(query, "-")
	}
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if !found || artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// matchKey lowercases s, drops bracketed segments such as "(Remastered 2011)"
// and release qualifiers, and joins the remaining letter/digit runs with
// single spaces.
func matchKey(s string) string {
	var kept strings.Builder
	depth := 0
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			kept.WriteRune(r)
		}
	}

	words := strings.FieldsFunc(kept.String(), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if !releaseQualifiers[w] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// searchTerm is matchKey falling back to the raw input when nothing survives.
func searchTerm(s string) string {
	if k := matchKey(s); k != "" {
		return k
	}
	return s
}

// bestMatch returns the highest scoring confident candidate. Ties keep the
// earlier candidate.
func bestMatch(title, artist string, candidates []domain.Track) (domain.Track, bool) {
	var best domain.Track
	bestScore := 0.0
	for _, c := range candidates {
		if score, ok := trackMatchScore(title, artist, c); ok && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore > 0
}

func trackMatchScore(title, artist string, candidate domain.Track) (float64, bool) {
	wantTitle, wantArtist := matchKey(title), matchKey(artist)
	gotTitle, gotArtist := matchKey(candidate.Name), matchKey(strings.Join(candidate.Artists, " "))
	if wantTitle == "" || wantArtist == "" || gotTitle == "" || gotArtist == "" {
		return 0, false
	}

	titleSim := similarity(wantTitle, gotTitle)
	artistSim := similarity(wantArtist, gotArtist)
	score := titleWeight*titleSim + artistWeight*artistSim
	ok := titleSim >= minTitleSimilarity && artistSim >= minArtistSimilarity && score >= minOverallSimilarity
	return score, ok
}

// similarity is 1 minus the edit distance normalized by the longer string.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance over runes, computed with a
// single row.
func editDistance(a, b []rune) int {
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			above := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(above+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(b)]
}
