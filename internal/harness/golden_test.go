package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.Len(t, files, 4)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name and scenario name should agree")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass)
		})
	}
}

func TestCanonicalTrace_OmitsEmptyCodeAndResult(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, Op: "offerSwap", Caller: "alice", Args: map[string]int64{"ticket": 3}, Outcome: "committed"},
	}

	data, err := CanonicalTrace("one", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"one","trace":[{"args":{"ticket":3},"caller":"alice","op":"offerSwap","outcome":"committed","seq":1}]}`,
		string(data))
}

func TestCanonicalTrace_Empty(t *testing.T) {
	data, err := CanonicalTrace("empty", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(data))
}
