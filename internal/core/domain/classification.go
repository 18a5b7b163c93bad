package domain

import "strings"

// Mood is one of the fixed reading moods.
type Mood string

const (
	MoodCalm        Mood = "calm"
	MoodFocused     Mood = "focused"
	MoodAdventurous Mood = "adventurous"
	MoodRomantic    Mood = "romantic"
	MoodMysterious  Mood = "mysterious"
	MoodUplifting   Mood = "uplifting"
	MoodMelancholy  Mood = "melancholy"
	MoodIntense     Mood = "intense"
)

// Moods lists every valid mood in declaration order.
var Moods = []Mood{
	MoodCalm, MoodFocused, MoodAdventurous, MoodRomantic,
	MoodMysterious, MoodUplifting, MoodMelancholy, MoodIntense,
}

// Energy is the energy level of the music.
type Energy string

const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

var Energies = []Energy{EnergyLow, EnergyMedium, EnergyHigh}

// Tempo is the tempo of the music.
type Tempo string

const (
	TempoSlow     Tempo = "slow"
	TempoModerate Tempo = "moderate"
	TempoFast     Tempo = "fast"
)

var Tempos = []Tempo{TempoSlow, TempoModerate, TempoFast}

// ParseMood reports whether raw names a valid mood.
func ParseMood(raw string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Moods {
		if v == m {
			return m, true
		}
	}
	return "", false
}

// ParseEnergy reports whether raw names a valid energy level.
func ParseEnergy(raw string) (Energy, bool) {
	e := Energy(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Energies {
		if v == e {
			return e, true
		}
	}
	return "", false
}

// ParseTempo reports whether raw names a valid tempo.
func ParseTempo(raw string) (Tempo, bool) {
	t := Tempo(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range Tempos {
		if v == t {
			return t, true
		}
	}
	return "", false
}

// Classification source labels.
const (
	SourceOpenAI  = "openai"
	SourceGemini  = "gemini"
	SourceOllama  = "ollama"
	SourceRules   = "rules"
	SourceDefault = "default"
)

const DefaultReasoning = "AI-generated recommendation"

// Classification is the mood/energy analysis of a book.
type Classification struct {
	Mood                    Mood     `json:"mood"`
	Energy                  Energy   `json:"energy"`
	Tempo                   Tempo    `json:"tempo"`
	Instrumentation         []string `json:"instrumentation"`
	SearchTerms             []string `json:"spotifySearchTerms"`
	Reasoning               string   `json:"reasoning"`
	SpecificRecommendations []string `json:"specificRecommendations"`
	Source                  string   `json:"source"`
}

// Normalize coerces every enumerated field into its fixed set and replaces
// nil lists with empty ones. Unknown mood becomes calm, unknown energy
// becomes medium, unknown tempo becomes moderate.
func (c Classification) Normalize() Classification {
	if m, ok := ParseMood(string(c.Mood)); ok {
		c.Mood = m
	} else {
		c.Mood = MoodCalm
	}
	if e, ok := ParseEnergy(string(c.Energy)); ok {
		c.Energy = e
	} else {
		c.Energy = EnergyMedium
	}
	if t, ok := ParseTempo(string(c.Tempo)); ok {
		c.Tempo = t
	} else {
		c.Tempo = TempoModerate
	}
	c.Instrumentation = nonNil(c.Instrumentation)
	c.SearchTerms = nonNil(c.SearchTerms)
	c.SpecificRecommendations = nonNil(c.SpecificRecommendations)
	if strings.TrimSpace(c.Reasoning) == "" {
		c.Reasoning = DefaultReasoning
	}
	return c
}

// DefaultClassification is used when nothing else applies.
func DefaultClassification() Classification {
	return Classification{
		Mood:                    MoodCalm,
		Energy:                  EnergyMedium,
		Tempo:                   TempoModerate,
		Instrumentation:         []string{"ambient", "piano"},
		SearchTerms:             []string{},
		Reasoning:               "Default recommendation for reading",
		SpecificRecommendations: []string{},
		Source:                  SourceDefault,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
