package categorizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomy_Invariants(t *testing.T) {
	all := AllCategories()
	require.Len(t, all, 44)

	assert.Equal(t, Food, all[0])
	assert.Equal(t, Other, all[12])
	assert.Equal(t, Credits, all[len(all)-1])

	seen := make(map[Category]bool, len(all))
	for _, c := range all {
		assert.False(t, seen[c], "duplicate category %s", c)
		seen[c] = true

		assert.True(t, IsValid(string(c)))
		assert.NotEmpty(t, Describe(c), "category %s has no description", c)
	}
}

func TestAllCategories_ReturnsCopy(t *testing.T) {
	all := AllCategories()
	all[0] = "MUTATED"

	assert.Equal(t, Food, AllCategories()[0])

	entries := Entries()
	entries[0].Description = "mutated"
	assert.Equal(t, "groceries, restaurants, bars", Describe(Food))
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"FOOD", true},
		{"PUBLIC_TRANSPORT", true},
		{"TRANSFER_AMANDINE", true},
		{"food", false},
		{" FOOD", false},
		{"NOT_A_REAL_CATEGORY", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValid(tt.id))
		})
	}
}

func TestParse(t *testing.T) {
	c, ok := Parse("  restaurant \n")
	assert.True(t, ok)
	assert.Equal(t, Restaurant, c)

	_, ok = Parse("coffee")
	assert.False(t, ok)

	assert.Equal(t, "FOOD", Normalize(" food "))
}

func TestListing(t *testing.T) {
	lines := strings.Split(Listing(), "\n")
	require.Len(t, lines, len(AllCategories()))

	assert.Equal(t, "- FOOD (groceries, restaurants, bars)", lines[0])
	assert.Equal(t, "- TRANSFER_ANTONIN (transfers to/from Antonin)", lines[40])
	assert.Equal(t, "- CREDITS (loans, credits, financing)", lines[43])
}
