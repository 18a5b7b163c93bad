package services

import (
	"reflect"
	"testing"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func TestGenerateQueries(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Classification
		want []string
	}{
		{
			name: "default classification",
			in:   domain.Classification{Mood: domain.MoodCalm, Energy: domain.EnergyMedium, Instrumentation: []string{"ambient", "piano"}},
			want: []string{"ambient instrumental", "piano instrumental", "calm music", "medium energy music", "reading music"},
		},
		{
			name: "search terms come first and truncate",
			in: domain.Classification{
				Mood:            domain.MoodMysterious,
				Energy:          domain.EnergyMedium,
				SearchTerms:     []string{"dark ambient", "mystery music", "noir jazz"},
				Instrumentation: []string{"dark ambient", "strings", "piano"},
			},
			want: []string{"dark ambient", "mystery music", "noir jazz", "dark ambient instrumental", "strings instrumental"},
		},
		{
			name: "duplicates and blanks removed",
			in: domain.Classification{
				SearchTerms:     []string{"reading music", "  ", "reading music"},
				Instrumentation: []string{""},
			},
			want: []string{"reading music", "study music", "focus music"},
		},
		{
			name: "empty classification still yields queries",
			in:   domain.Classification{},
			want: []string{"reading music", "study music", "focus music"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateQueries(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if len(got) < 1 || len(got) > 5 {
				t.Fatalf("query count out of bounds: %d", len(got))
			}
		})
	}
}
