package services

import (
	"fmt"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

const promptTemplate = `Analyze this book and recommend music that would create the perfect reading atmosphere:

Book: "%s" by %s
Genre: %s
Description: %s

Please provide music recommendations in this exact JSON format:
{
  "mood": "one of: calm, focused, adventurous, romantic, mysterious, uplifting, melancholy, intense",
  "energy": "one of: low, medium, high",
  "tempo": "one of: slow, moderate, fast",
  "instrumentation": ["piano", "strings", "ambient", "jazz", "classical", "electronic", etc.],
  "spotifySearchTerms": ["search term 1", "search term 2", "search term 3"],
  "reasoning": "Brief explanation of why this music fits the book",
  "specificRecommendations": ["Artist - Song Title", "Artist - Song Title", "Artist - Song Title"]
}

Focus on music that enhances the reading experience and matches the book's emotional tone, setting, and themes.
`

// BuildPrompt renders the classification prompt for a book.
func BuildPrompt(book domain.Book) string {
	return fmt.Sprintf(promptTemplate,
		orDefault(book.Title, "Unknown Title"),
		orDefault(strings.Join(book.Authors, ", "), "Unknown Author"),
		orDefault(strings.Join(book.Categories, ", "), "General"),
		orDefault(book.Description, "No description available"),
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
