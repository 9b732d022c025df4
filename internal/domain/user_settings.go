package domain

// UserSettings holds client display preferences stored at users/{uid}/settings.
type UserSettings struct {
	DarkMode bool `json:"darkMode"`
}
