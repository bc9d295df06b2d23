package categorizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/mock"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectClassifier_Classify(t *testing.T) {
	tests := []struct {
		name       string
		reply      mock.Responder
		category   Category
		confidence float64
		fallback   bool
	}{
		{
			name:       "valid answer with stop",
			reply:      mock.Text("RESTAURANT\n"),
			category:   Restaurant,
			confidence: ConfidenceDirectStop,
		},
		{
			name:       "valid answer cut by the token cap",
			reply:      mock.Truncated("GROCERIES"),
			category:   Groceries,
			confidence: ConfidenceDirectTruncated,
		},
		{
			name:       "lowercase answer is not accepted",
			reply:      mock.Text("restaurant"),
			category:   Other,
			confidence: ConfidenceFallback,
			fallback:   true,
		},
		{
			name:       "prose answer",
			reply:      mock.Text("The category is FOOD"),
			category:   Other,
			confidence: ConfidenceFallback,
			fallback:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := mock.New(tt.reply)
			c := NewDirectClassifier(model)

			outcome, err := c.Classify(context.Background(), "LE PETIT BISTROT")
			require.NoError(t, err)

			assert.Equal(t, tt.category, outcome.Category)
			assert.Equal(t, tt.confidence, outcome.Confidence)
			assert.Equal(t, tt.fallback, outcome.Fallback)
			assert.NotNil(t, outcome.Conversation)
			assert.Empty(t, outcome.Conversation)
		})
	}
}

func TestDirectClassifier_Request(t *testing.T) {
	model := mock.New(mock.Text("FOOD"))

	_, err := NewDirectClassifier(model).Classify(context.Background(), "CARREFOUR MARKET")
	require.NoError(t, err)

	requests := model.Requests()
	require.Len(t, requests, 1)

	req := requests[0]
	assert.Equal(t, 10, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, float32(0), *req.Temperature)
	assert.Empty(t, req.Tools)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, types.RoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, `Transaction description: "CARREFOUR MARKET"`)
	assert.Contains(t, req.Messages[0].Content, "- TOBACCO (tobacco, cigarettes, vape)")
	assert.True(t, strings.HasSuffix(req.Messages[0].Content, "Return only the category name without any explanation."))
}

func TestDirectClassifier_ModelFailureIsReturned(t *testing.T) {
	boom := errors.New("deployment not found")
	c := NewDirectClassifier(mock.New(mock.Fail(boom)))
	assert.Equal(t, ModeDirect, c.Mode())

	_, err := c.Classify(context.Background(), "AMAZON")
	assert.ErrorIs(t, err, boom)
}
