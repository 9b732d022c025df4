package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForUser(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9A-F]{6}$`)

	for _, id := range []string{"", "usr-1", "usr-2", "a-much-longer-user-identifier"} {
		c := ForUser(id)
		assert.Regexp(t, hex, c)
		assert.Equal(t, c, ForUser(id))
	}
}

func TestForUser_Spreads(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range []string{"usr-a", "usr-b", "usr-c", "usr-d", "usr-e", "usr-f", "usr-g", "usr-h"} {
		seen[ForUser(id)] = true
	}
	assert.Greater(t, len(seen), 1)
}
