package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/core/internal/domain/entities"
)

func newTestStore(t *testing.T, loc Locations) (*FileDocumentStore, *PathResolver) {
	t.Helper()
	if loc.DataDir == "" {
		loc.DataDir = filepath.Join(t.TempDir(), "appdata")
	}
	if loc.WorkDir == "" {
		loc.WorkDir = t.TempDir()
	}
	resolver := NewPathResolver(loc)
	return NewFileDocumentStore(resolver), resolver
}

func parseJSON(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestEnsureInitializedCreatesEmptyDocument(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	require.NoError(t, store.EnsureInitialized())

	path, err := resolver.Resolve()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := map[string]interface{}{
		"questions":   []interface{}{},
		"version":     "1.0.0",
		"lastUpdated": "",
	}
	assert.Equal(t, expected, parseJSON(t, string(data)))
}

func TestEnsureInitializedIsIdempotent(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	require.NoError(t, store.EnsureInitialized())

	path, err := resolver.Resolve()
	require.NoError(t, err)

	// Replace the contents; the second call must not touch them.
	custom := `{"questions": [{"id": "q001"}], "version": "1.0.0", "lastUpdated": "2024-01-01"}`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	require.NoError(t, store.EnsureInitialized())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestEnsureInitializedCopiesBundledDefault(t *testing.T) {
	resourceDir := t.TempDir()
	bundled := `{
  "questions": [{"id": "q001", "question": "What does OSPF stand for?"}],
  "version": "1.0.0",
  "lastUpdated": "2024-06-01"
}`
	writeFile(t, filepath.Join(resourceDir, "data", "questions.json"), bundled)

	store, resolver := newTestStore(t, Locations{ResourceDir: resourceDir})

	require.NoError(t, store.EnsureInitialized())

	path, err := resolver.Resolve()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bundled, string(data), "bundled default must be copied verbatim")
}

func TestSaveReadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, Locations{})

	input := `{"questions":[{"id":"q001","question":"What is a VLAN?","options":["a","b"],"correctAnswer":["a"]}],"version":"1.0.0","lastUpdated":"2024-06-01"}`

	confirmation, err := store.Save(input)
	require.NoError(t, err)
	assert.Contains(t, confirmation, "questions.json")

	contents, err := store.Read()
	require.NoError(t, err)

	// Formatting may differ; parsed values must not.
	assert.Equal(t, parseJSON(t, input), parseJSON(t, contents))
}

func TestSavePrettyPrints(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	_, err := store.Save(`{"questions":[],"version":"1.0.0","lastUpdated":""}`)
	require.NoError(t, err)

	path, err := resolver.Resolve()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"questions\"")
}

func TestSaveRejectsInvalidJSON(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	require.NoError(t, store.EnsureInitialized())

	path, err := resolver.Resolve()
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = store.Save(`{not valid json`)
	require.Error(t, err)
	assert.Equal(t, entities.ErrorKindJSONParse, entities.KindOf(err))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "a rejected save must leave the file untouched")
}

func TestSaveRejectsInvalidJSONWithoutInitializing(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	_, err := store.Save(`not json at all`)
	require.Error(t, err)

	path, err := resolver.Resolve()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReadInitializesWhenAbsent(t *testing.T) {
	store, _ := newTestStore(t, Locations{})

	contents, err := store.Read()
	require.NoError(t, err)

	expected := map[string]interface{}{
		"questions":   []interface{}{},
		"version":     "1.0.0",
		"lastUpdated": "",
	}
	assert.Equal(t, expected, parseJSON(t, contents))
}

func TestReadReturnsBytesVerbatim(t *testing.T) {
	store, resolver := newTestStore(t, Locations{})

	require.NoError(t, store.EnsureInitialized())
	path, err := resolver.Resolve()
	require.NoError(t, err)

	// Whatever is on disk comes back unmodified, valid JSON or not.
	odd := "{\"questions\": [],\n\t\"version\": \"1.0.0\", \"lastUpdated\": \"\"}"
	require.NoError(t, os.WriteFile(path, []byte(odd), 0o644))

	contents, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, odd, contents)
}
