package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHost(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "plain", url: "https://www.societe.com/societe/starbucks", expected: "www.societe.com"},
		{name: "uppercase with port", url: "HTTPS://Annuaire-Entreprises.data.gouv.fr:443/x", expected: "annuaire-entreprises.data.gouv.fr"},
		{name: "not a url", url: "::::", expected: ""},
		{name: "empty", url: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Host(tt.url))
		})
	}
}

func TestPrioritize(t *testing.T) {
	preferred := []string{"www.societe.com", "annuaire-entreprises.data.gouv.fr"}

	first := Result{Title: "Starbucks", SourceURL: "https://www.starbucks.fr"}
	blog := Result{Title: "Blog", SourceURL: "https://blog.example.com/coffee"}
	societe := Result{Title: "Societe", SourceURL: "https://www.societe.com/societe/starbucks-coffee-france"}
	annuaire := Result{Title: "Annuaire", SourceURL: "https://annuaire-entreprises.data.gouv.fr/entreprise/starbucks"}
	wiki := Result{Title: "Wiki", SourceURL: "https://fr.wikipedia.org/wiki/Starbucks"}

	tests := []struct {
		name      string
		results   []Result
		preferred []string
		expected  []Result
	}{
		{
			name:      "registries move behind the first hit",
			results:   []Result{first, blog, societe, wiki, annuaire},
			preferred: preferred,
			expected:  []Result{first, societe, annuaire, blog, wiki},
		},
		{
			name:      "first hit stays first even if it is not preferred",
			results:   []Result{blog, annuaire},
			preferred: preferred,
			expected:  []Result{blog, annuaire},
		},
		{
			name:      "no preferred hosts keeps provider order",
			results:   []Result{first, blog, societe},
			preferred: nil,
			expected:  []Result{first, blog, societe},
		},
		{
			name:      "empty",
			results:   nil,
			preferred: preferred,
			expected:  []Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Prioritize(tt.results, tt.preferred))
		})
	}
}

func TestIsPreferred(t *testing.T) {
	assert.True(t, IsPreferred("www.societe.com", []string{"www.societe.com"}))
	assert.True(t, IsPreferred("api.data.gouv.fr", []string{"data.gouv.fr"}))
	assert.False(t, IsPreferred("notdata.gouv.fr.evil.com", []string{"data.gouv.fr"}))
	assert.False(t, IsPreferred("", []string{"data.gouv.fr"}))
}
