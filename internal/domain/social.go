package domain

// UserSummary is one row of the social user list.
type UserSummary struct {
	Profile     UserProfile `json:"profile"`
	AvatarColor string      `json:"avatar_color"`
	Initials    string      `json:"initials"`
	// Connected reports whether the requesting user already follows this user.
	Connected bool `json:"connected"`
}

// Rating bounds accepted from clients.
const (
	MinRating = 0
	MaxRating = 5
)

// RatingSummary aggregates every user's rating of one movie.
type RatingSummary struct {
	MovieID string  `json:"movie_id"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}
