// Package color picks avatar colors for the social user list.
package color

import "hash/fnv"

// palette holds medium-lightness colors that keep white initials readable.
var palette = []string{
	"#E57373", "#F06292", "#BA68C8", "#9575CD",
	"#7986CB", "#64B5F6", "#4FC3F7", "#4DB6AC",
	"#81C784", "#AED581", "#FFB74D", "#FF8A65",
}

// ForUser returns the avatar color of a user. The same id always maps to the same color.
func ForUser(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return palette[h.Sum32()%uint32(len(palette))]
}
