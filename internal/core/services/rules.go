package services

import (
	"context"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

const ruleReasoning = "Rule-based analysis"

// KeywordGroup maps a set of keywords to a mood, energy and music hints.
// A group matches when any keyword appears as a substring of the book text.
type KeywordGroup struct {
	Keywords        []string
	Mood            domain.Mood
	Energy          domain.Energy
	Instrumentation []string
	SearchTerms     []string
}

// DefaultKeywordGroups returns the built-in groups in match order.
func DefaultKeywordGroups() []KeywordGroup {
	return []KeywordGroup{
		{
			Keywords:        []string{"mystery", "thriller", "detective", "crime", "murder", "suspense"},
			Mood:            domain.MoodMysterious,
			Energy:          domain.EnergyMedium,
			Instrumentation: []string{"dark ambient", "strings", "piano"},
			SearchTerms:     []string{"dark ambient", "mystery music", "noir jazz"},
		},
		{
			Keywords:        []string{"romance", "love", "heart", "passion", "relationship"},
			Mood:            domain.MoodRomantic,
			Energy:          domain.EnergyLow,
			Instrumentation: []string{"piano", "strings", "acoustic"},
			SearchTerms:     []string{"romantic piano", "love songs instrumental", "acoustic romance"},
		},
		{
			Keywords:        []string{"fantasy", "magic", "dragon", "adventure", "quest", "epic", "medieval"},
			Mood:            domain.MoodAdventurous,
			Energy:          domain.EnergyHigh,
			Instrumentation: []string{"orchestral", "epic", "celtic"},
			SearchTerms:     []string{"epic fantasy music", "medieval ambient", "adventure soundtrack"},
		},
		{
			Keywords:        []string{"science fiction", "sci-fi", "space", "future", "technology", "cyberpunk"},
			Mood:            domain.MoodFocused,
			Energy:          domain.EnergyMedium,
			Instrumentation: []string{"electronic", "ambient", "synthwave"},
			SearchTerms:     []string{"cyberpunk ambient", "space music", "futuristic sounds"},
		},
		{
			Keywords:        []string{"horror", "scary", "ghost", "haunted", "supernatural", "fear"},
			Mood:            domain.MoodIntense,
			Energy:          domain.EnergyLow,
			Instrumentation: []string{"dark ambient", "strings", "atmospheric"},
			SearchTerms:     []string{"horror ambient", "dark atmospheric", "haunting music"},
		},
		{
			Keywords:        []string{"drama", "literary", "contemporary", "family", "life", "society"},
			Mood:            domain.MoodMelancholy,
			Energy:          domain.EnergyLow,
			Instrumentation: []string{"piano", "strings", "indie"},
			SearchTerms:     []string{"contemplative piano", "indie folk", "melancholy instrumental"},
		},
	}
}

// RuleEngine is the deterministic last step of the cascade. It never fails.
type RuleEngine struct {
	groups []KeywordGroup
}

var _ ports.ClassificationStrategy = (*RuleEngine)(nil)

// NewRuleEngine builds an engine over groups. A nil slice uses the defaults.
func NewRuleEngine(groups []KeywordGroup) *RuleEngine {
	if groups == nil {
		groups = DefaultKeywordGroups()
	}
	return &RuleEngine{groups: groups}
}

func (r *RuleEngine) Name() string { return domain.SourceRules }

// Classify scans title, description and categories against the groups in
// order; the first group with a matching keyword wins.
func (r *RuleEngine) Classify(_ context.Context, book domain.Book) (domain.Classification, error) {
	text := strings.ToLower(book.Title + " " + book.Description + " " + strings.Join(book.Categories, " "))

	c := domain.Classification{
		Mood:                    domain.MoodCalm,
		Energy:                  domain.EnergyMedium,
		Tempo:                   domain.TempoModerate,
		Instrumentation:         []string{"ambient", "piano"},
		SearchTerms:             []string{},
		Reasoning:               ruleReasoning,
		SpecificRecommendations: []string{},
		Source:                  domain.SourceRules,
	}

	for _, g := range r.groups {
		if !containsAny(text, g.Keywords) {
			continue
		}
		c.Mood = g.Mood
		c.Energy = g.Energy
		c.Instrumentation = append([]string(nil), g.Instrumentation...)
		c.SearchTerms = append([]string(nil), g.SearchTerms...)
		break
	}
	return c, nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
