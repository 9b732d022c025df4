package id

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixUser)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixSubscription, PrefixRequest} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, prefix+"-"))
			nanoidPart := strings.TrimPrefix(id, prefix+"-")
			assert.Len(t, nanoidPart, 21)
			assert.NotContains(t, nanoidPart, "/", "ids are used as tree path segments")
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("test")

	assert.True(t, strings.HasPrefix(id, "test-"))
	assert.Equal(t, len("test")+1+21, len(id))
}

func TestPushKey_Format(t *testing.T) {
	key, err := PushKey()
	require.NoError(t, err)

	assert.Len(t, key, 20)
	for _, c := range key {
		assert.True(t, strings.ContainsRune(pushAlphabet, c), "unexpected character %c", c)
	}
}

func TestPushKey_SortsByTime(t *testing.T) {
	first, err := PushKey()
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	second, err := PushKey()
	require.NoError(t, err)

	assert.Less(t, first, second)
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
