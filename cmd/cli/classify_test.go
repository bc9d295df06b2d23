package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/flowbaker/categorizer/pkg/categorizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("CB STARBUCKS\n\n  SNCF INTERNET  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"CB STARBUCKS", "SNCF INTERNET"}, lines)
}

func TestWriteResults(t *testing.T) {
	results := []classifyResult{
		{Description: "CB STARBUCKS", Category: categorizer.Food, Confidence: 0.9, RunID: "run-1"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "text", results))
		assert.Equal(t, "FOOD\tCB STARBUCKS\t0.9\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "json", results))
		assert.JSONEq(t, `[{"description":"CB STARBUCKS","category":"FOOD","confidence":0.9,"run_id":"run-1"}]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "yaml", results))

		var decoded []classifyResult
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, results, decoded)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeResults(&bytes.Buffer{}, "xml", results))
	})
}

func TestCategoriesCommand(t *testing.T) {
	var buf bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"categories"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "- FOOD (")
	assert.Contains(t, buf.String(), "- OTHER (")
}
