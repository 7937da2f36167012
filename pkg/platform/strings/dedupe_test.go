package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("removes blanks and repeats preserving order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"  C1 ", "C2", "C1", "", "  "})
		assert.Equal(t, []string{"C1", "C2"}, got)
	})

	t.Run("empty input returned as-is", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim(nil))
	})
}

func TestDuplicates(t *testing.T) {
	t.Run("reports each repeated value once", func(t *testing.T) {
		got := Duplicates([]string{"C1", "C2", "C1", "C3", "C2", "C1"})
		assert.Equal(t, []string{"C1", "C2"}, got)
	})

	t.Run("distinct values have no duplicates", func(t *testing.T) {
		assert.Empty(t, Duplicates([]string{"C1", "C2", "C3"}))
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		assert.Empty(t, Duplicates([]string{"c1", "C1"}))
	})
}
