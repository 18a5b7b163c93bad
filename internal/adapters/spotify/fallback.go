package spotify

import (
	"strings"
	"unicode"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// FallbackTrack is one curated entry served when Spotify is unreachable.
type FallbackTrack struct {
	Name   string
	Artist string
	Album  string
}

// FallbackEntry maps a lowercase key to its curated tracks. A query selects
// the entry when it contains Key as a substring.
type FallbackEntry struct {
	Key    string
	Tracks []FallbackTrack
}

// FallbackCatalog is the immutable curated track table. Entries are checked
// in order; queries matching none get the default set.
type FallbackCatalog struct {
	entries  []FallbackEntry
	defaults []FallbackTrack
}

func NewFallbackCatalog(entries []FallbackEntry, defaults []FallbackTrack) *FallbackCatalog {
	c := &FallbackCatalog{
		entries:  make([]FallbackEntry, len(entries)),
		defaults: append([]FallbackTrack(nil), defaults...),
	}
	for i, e := range entries {
		c.entries[i] = FallbackEntry{
			Key:    strings.ToLower(e.Key),
			Tracks: append([]FallbackTrack(nil), e.Tracks...),
		}
	}
	return c
}

// DefaultFallbackCatalog returns the built-in genre table.
func DefaultFallbackCatalog() *FallbackCatalog {
	return NewFallbackCatalog([]FallbackEntry{
		{Key: "fantasy", Tracks: []FallbackTrack{
			{Name: "Concerning Hobbits", Artist: "Howard Shore", Album: "The Lord of the Rings"},
			{Name: "The Shire", Artist: "Howard Shore", Album: "The Fellowship of the Ring"},
			{Name: "Medieval Cat", Artist: "Lute Music", Album: "Renaissance Collection"},
		}},
		{Key: "scifi science fiction", Tracks: []FallbackTrack{
			{Name: "Blade Runner Blues", Artist: "Vangelis", Album: "Blade Runner"},
			{Name: "Main Theme", Artist: "John Williams", Album: "Star Wars"},
			{Name: "Space Oddity", Artist: "David Bowie", Album: "Space Oddity"},
		}},
		{Key: "mystery thriller", Tracks: []FallbackTrack{
			{Name: "Gymnopédie No. 1", Artist: "Erik Satie", Album: "Gymnopédies"},
			{Name: "Clair de Lune", Artist: "Claude Debussy", Album: "Suite Bergamasque"},
			{Name: "The Pink Panther Theme", Artist: "Henry Mancini", Album: "The Pink Panther"},
		}},
		{Key: "romance", Tracks: []FallbackTrack{
			{Name: "Canon in D", Artist: "Johann Pachelbel", Album: "Classical Romance"},
			{Name: "Clair de Lune", Artist: "Claude Debussy", Album: "Suite Bergamasque"},
			{Name: "The Way You Look Tonight", Artist: "Tony Bennett", Album: "The Art of Romance"},
		}},
		{Key: "dune", Tracks: []FallbackTrack{
			{Name: "Desert Planet", Artist: "Hans Zimmer", Album: "Dune Original Soundtrack"},
			{Name: "Paul's Dream", Artist: "Hans Zimmer", Album: "Dune Original Soundtrack"},
			{Name: "One Ring Day", Artist: "Hans Zimmer", Album: "Dune Original Soundtrack"},
		}},
	}, []FallbackTrack{
		{Name: "Ambient Reading", Artist: "Reading Music", Album: "Focus & Study"},
		{Name: "Peaceful Pages", Artist: "Study Sounds", Album: "Library Ambience"},
		{Name: "Book Cafe", Artist: "Lofi Hip Hop", Album: "Cozy Reads"},
		{Name: "Quiet Moments", Artist: "Piano Solitude", Album: "Reading Companion"},
	})
}

// Tracks returns the curated tracks for query, capped to limit when limit > 0.
// The result is never empty unless limit caps it or the catalog is empty.
func (c *FallbackCatalog) Tracks(query string, limit int) []domain.Track {
	selected := c.defaults
	q := strings.ToLower(query)
	for _, e := range c.entries {
		if e.Key != "" && strings.Contains(q, e.Key) {
			selected = e.Tracks
			break
		}
	}

	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	out := make([]domain.Track, 0, len(selected))
	for _, t := range selected {
		out = append(out, t.toDomain())
	}
	return out
}

// All lists every distinct curated track, used for matching in fallback mode.
func (c *FallbackCatalog) All() []domain.Track {
	var all []domain.Track
	for _, e := range c.entries {
		for _, t := range e.Tracks {
			all = append(all, t.toDomain())
		}
	}
	for _, t := range c.defaults {
		all = append(all, t.toDomain())
	}
	return domain.DedupeTracks(all, 0)
}

func (t FallbackTrack) toDomain() domain.Track {
	return domain.Track{
		ID:      "fallback:" + slug(t.Name+" "+t.Artist),
		Name:    t.Name,
		Artists: []string{t.Artist},
		Album:   t.Album,
	}
}

// slug lowercases s and joins its letter and digit runs with '-'.
func slug(s string) string {
	var out strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && out.Len() > 0 {
				out.WriteByte('-')
			}
			out.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	return out.String()
}
