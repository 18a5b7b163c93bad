package services

import (
	"context"
	"testing"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func TestRuleEngine_Classify(t *testing.T) {
	tests := []struct {
		name       string
		book       domain.Book
		wantMood   domain.Mood
		wantEnergy domain.Energy
		wantFirst  string
	}{
		{
			name:       "mystery in description",
			book:       domain.Book{Title: "Gone Girl", Description: "A psychological thriller about a marriage."},
			wantMood:   domain.MoodMysterious,
			wantEnergy: domain.EnergyMedium,
			wantFirst:  "dark ambient",
		},
		{
			name:       "mystery wins over romance",
			book:       domain.Book{Title: "Murder of the Heart"},
			wantMood:   domain.MoodMysterious,
			wantEnergy: domain.EnergyMedium,
			wantFirst:  "dark ambient",
		},
		{
			name:       "romance from categories",
			book:       domain.Book{Title: "Pride and Prejudice", Categories: []string{"Romance"}},
			wantMood:   domain.MoodRomantic,
			wantEnergy: domain.EnergyLow,
			wantFirst:  "romantic piano",
		},
		{
			name:       "fantasy",
			book:       domain.Book{Title: "The Hobbit", Description: "A dragon guards the treasure."},
			wantMood:   domain.MoodAdventurous,
			wantEnergy: domain.EnergyHigh,
			wantFirst:  "epic fantasy music",
		},
		{
			name:       "science fiction",
			book:       domain.Book{Title: "Snow Crash", Categories: []string{"Cyberpunk"}},
			wantMood:   domain.MoodFocused,
			wantEnergy: domain.EnergyMedium,
			wantFirst:  "cyberpunk ambient",
		},
		{
			name:       "horror",
			book:       domain.Book{Title: "The Shining", Description: "A haunted hotel."},
			wantMood:   domain.MoodIntense,
			wantEnergy: domain.EnergyLow,
			wantFirst:  "horror ambient",
		},
		{
			name:       "drama",
			book:       domain.Book{Title: "Stoner", Categories: []string{"Literary Collections"}},
			wantMood:   domain.MoodMelancholy,
			wantEnergy: domain.EnergyLow,
			wantFirst:  "contemplative piano",
		},
		{
			name:       "no keyword",
			book:       domain.Book{Title: "Dune", Categories: []string{"Fiction"}},
			wantMood:   domain.MoodCalm,
			wantEnergy: domain.EnergyMedium,
		},
	}

	engine := NewRuleEngine(nil)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Classify(context.Background(), tc.book)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Mood != tc.wantMood || got.Energy != tc.wantEnergy {
				t.Fatalf("got %s/%s, want %s/%s", got.Mood, got.Energy, tc.wantMood, tc.wantEnergy)
			}
			if tc.wantFirst == "" {
				if len(got.SearchTerms) != 0 {
					t.Fatalf("expected no search terms, got %v", got.SearchTerms)
				}
				return
			}
			if len(got.SearchTerms) == 0 || got.SearchTerms[0] != tc.wantFirst {
				t.Fatalf("search terms: got %v, want first %q", got.SearchTerms, tc.wantFirst)
			}
		})
	}
}

func TestRuleEngine_InjectedGroups(t *testing.T) {
	engine := NewRuleEngine([]KeywordGroup{{
		Keywords: []string{"whale"},
		Mood:     domain.MoodUplifting,
		Energy:   domain.EnergyHigh,
	}})
	got, _ := engine.Classify(context.Background(), domain.Book{Title: "Moby Dick", Description: "A white whale."})
	if got.Mood != domain.MoodUplifting {
		t.Fatalf("expected injected group to match, got %s", got.Mood)
	}
	if got.Source != domain.SourceRules {
		t.Fatalf("source: got %q", got.Source)
	}
}
