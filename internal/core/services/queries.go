package services

import (
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

const maxQueries = 5

var readingQueries = []string{"reading music", "study music", "focus music"}

// GenerateQueries turns a classification into at most five distinct search
// queries. The fixed reading queries guarantee at least one result.
func GenerateQueries(c domain.Classification) []string {
	candidates := make([]string, 0, len(c.SearchTerms)+len(c.Instrumentation)+5)
	candidates = append(candidates, c.SearchTerms...)
	for _, inst := range c.Instrumentation {
		if strings.TrimSpace(inst) == "" {
			continue
		}
		candidates = append(candidates, inst+" instrumental")
	}
	if c.Mood != "" {
		candidates = append(candidates, string(c.Mood)+" music")
	}
	if c.Energy != "" {
		candidates = append(candidates, string(c.Energy)+" energy music")
	}
	candidates = append(candidates, readingQueries...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxQueries)
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == maxQueries {
			break
		}
	}
	return out
}
