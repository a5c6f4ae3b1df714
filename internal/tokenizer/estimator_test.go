package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCount(t *testing.T) {
	e := NewHeuristic()
	assert.False(t, e.Exact())

	assert.Equal(t, 0, e.Count(""))
	assert.Equal(t, 2, e.Count("abc"))
	assert.Equal(t, 6, e.Count("abcdefghi"))
	assert.Equal(t, 64000, e.Count(strings.Repeat("a", 96000)))
	// Heuristic works on bytes, so multi-byte runes weigh more.
	assert.Equal(t, 4, e.Count("日本"))
}
