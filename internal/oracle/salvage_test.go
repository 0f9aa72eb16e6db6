package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstArrayBare(t *testing.T) {
	t.Parallel()

	arr, ok := FirstArray(`["https://a.example/1","https://a.example/2"]`)
	require.True(t, ok)
	require.Equal(t, `["https://a.example/1","https://a.example/2"]`, arr)
}

func TestFirstArrayStripsFences(t *testing.T) {
	t.Parallel()

	raw := "```json\n[\"https://a.example/1\"]\n```"
	arr, ok := FirstArray(raw)
	require.True(t, ok)
	require.Equal(t, `["https://a.example/1"]`, arr)
}

func TestFirstArraySurvivesProse(t *testing.T) {
	t.Parallel()

	raw := `Sure! Here are the matching links: ["https://a.example/1"] Hope that helps.`
	arr, ok := FirstArray(raw)
	require.True(t, ok)
	require.Equal(t, `["https://a.example/1"]`, arr)
}

func TestFirstObjectNested(t *testing.T) {
	t.Parallel()

	raw := `{"job_title":"SRE","company":"Acme","meta":{"x":1},"min":100000,"max":150000}`
	obj, ok := FirstObject(raw)
	require.True(t, ok)
	require.Equal(t, raw, obj)
}

func TestFirstObjectIgnoresBracesInsideStrings(t *testing.T) {
	t.Parallel()

	raw := `{"job_title":"Engineer {remote}","min":0,"max":0}`
	obj, ok := FirstObject(raw)
	require.True(t, ok)
	require.Equal(t, raw, obj)
}

func TestFirstArrayMissing(t *testing.T) {
	t.Parallel()

	_, ok := FirstArray("no links match, sorry")
	require.False(t, ok)

	_, ok = FirstArray("[1, 2") // unbalanced
	require.False(t, ok)
}
