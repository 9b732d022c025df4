package domain

import "strings"

// UserProfile is the public record at users/{uid}.
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName returns "First Last", or the username when both names are blank.
func (p UserProfile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Initials returns up to two uppercase initials for avatar rendering.
func (p UserProfile) Initials() string {
	var out []rune
	for _, part := range strings.Fields(p.DisplayName()) {
		for _, r := range part {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
