package domain

import "strings"

// Document tree roots.
const (
	UsersRoot   = "users"
	RatingsRoot = "ratings"

	connectionsSegment = "connections"
	settingsSegment    = "settings"
)

// UserPath is the profile node of a user.
func UserPath(uid string) string { return UsersRoot + "/" + uid }

// CollectionPath is the node holding a user's favorites or watchlist.
func CollectionPath(uid string, kind CollectionKind) string {
	return UserPath(uid) + "/" + string(kind)
}

// CollectionItemPath is one movie entry of a collection, keyed by movie id.
func CollectionItemPath(uid string, kind CollectionKind, movieID string) string {
	return CollectionPath(uid, kind) + "/" + movieID
}

// ConnectionsPath is the node holding a user's outgoing connections.
func ConnectionsPath(uid string) string { return UserPath(uid) + "/" + connectionsSegment }

// ConnectionPath is the edge from uid to target, keyed by the target id.
func ConnectionPath(uid, target string) string { return ConnectionsPath(uid) + "/" + target }

// SettingsPath is a user's preference node.
func SettingsPath(uid string) string { return UserPath(uid) + "/" + settingsSegment }

// RatingsPath is the node holding every user's rating of a movie.
func RatingsPath(movieID string) string { return RatingsRoot + "/" + movieID }

// RatingPath is one user's rating of a movie.
func RatingPath(movieID, uid string) string { return RatingsPath(movieID) + "/" + uid }

// PathOwner returns the user a path belongs to, or "" for shared nodes such as ratings.
func PathOwner(path string) string {
	rest, ok := strings.CutPrefix(path, UsersRoot+"/")
	if !ok {
		return ""
	}
	uid, _, _ := strings.Cut(rest, "/")
	return uid
}

// ResolveUserPath maps a client-facing path relative to the caller onto the tree.
// Accepted forms: "", "profile", "favorites", "watchlist", "connections", "settings", "ratings/{movieId}".
func ResolveUserPath(uid, rel string) (string, bool) {
	rel = strings.Trim(rel, "/")
	switch rel {
	case "", "profile":
		return UserPath(uid), true
	case string(CollectionFavorites), string(CollectionWatchlist):
		return CollectionPath(uid, CollectionKind(rel)), true
	case connectionsSegment:
		return ConnectionsPath(uid), true
	case settingsSegment:
		return SettingsPath(uid), true
	}
	if movieID, ok := strings.CutPrefix(rel, RatingsRoot+"/"); ok && movieID != "" && !strings.Contains(movieID, "/") {
		return RatingsPath(movieID), true
	}
	return "", false
}
