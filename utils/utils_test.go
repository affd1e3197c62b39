package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}

func TestChunkStrings(t *testing.T) {
	assert.Nil(t, ChunkStrings(nil, 3))
	assert.Nil(t, ChunkStrings([]string{}, 3))

	// exact multiple
	chunks := ChunkStrings([]string{"a", "b", "c", "d"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, chunks)

	// remainder goes into the final, smaller chunk
	chunks = ChunkStrings([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, []string{"e"}, chunks[2])

	// chunk size larger than input
	chunks = ChunkStrings([]string{"a"}, 500)
	assert.Equal(t, [][]string{{"a"}}, chunks)
}

func TestMin(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 1, Min(2, 1))
}

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(8)
	assert.Equal(t, 8, len(s))
	assert.NotEqual(t, s, RandomAlphabetString(8))
}
