package domain

import "time"

// VoteDirection is the direction of a vibe vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Delta returns +1 or -1, or an error for anything else.
func (d VoteDirection) Delta() (int, error) {
	switch d {
	case VoteUp:
		return 1, nil
	case VoteDown:
		return -1, nil
	default:
		return 0, Invalid("vote", "must be up or down")
	}
}

// MusicVibe is a mood/music association cached on a book. Entries are only
// appended or voted on, never removed.
type MusicVibe struct {
	ID                string    `json:"id" bson:"id"`
	Genre             string    `json:"genre" bson:"genre"`
	Mood              Mood      `json:"mood" bson:"mood"`
	Energy            Energy    `json:"energy" bson:"energy"`
	SpotifyPlaylistID string    `json:"spotifyPlaylistId,omitempty" bson:"spotify_playlist_id,omitempty"`
	SuggestedBy       string    `json:"suggestedBy,omitempty" bson:"suggested_by,omitempty"`
	Votes             int       `json:"votes" bson:"votes"`
	Reasoning         string    `json:"aiAnalysis,omitempty" bson:"reasoning,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"created_at"`
}

// PopularVibe is a vibe joined with the book it belongs to.
type PopularVibe struct {
	MusicVibe
	BookID      string   `json:"bookId"`
	BookTitle   string   `json:"bookTitle"`
	BookAuthors []string `json:"bookAuthors"`
}
