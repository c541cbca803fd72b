package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/core/internal/domain/entities"
	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/ports"
)

const mergeFixture = `{
  "questions": [
    {"id": "q001", "question": "What is a VLAN?", "options": ["a", "b"], "correctAnswer": ["a"]},
    {"id": "ext-002", "question": "What does ARP do?", "options": ["a", "b"], "correctAnswer": ["a"]}
  ],
  "version": "1.0.0",
  "lastUpdated": "2024-06-01"
}`

const mergeBatch = `{
  "questions": [
    {"id": "n1", "question": "what is a  vlan?", "options": ["a", "b"], "correctAnswer": ["a"]},
    {"id": "n2", "question": "What is OSPF?", "options": ["a", "b"], "correctAnswer": ["b"]},
    {"id": "n3", "question": "What is STP?", "options": ["a", "b"], "correctAnswer": ["a"]}
  ]
}`

func writeBatch(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extraction.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func decodeQuestions(t *testing.T, raw string) []entities.Question {
	t.Helper()
	var doc entities.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	questions := make([]entities.Question, 0, len(doc.Questions))
	for _, rawQuestion := range doc.Questions {
		var q entities.Question
		require.NoError(t, json.Unmarshal(rawQuestion, &q))
		questions = append(questions, q)
	}
	return questions
}

func TestMergeSkipsDuplicatesAndAssignsIDs(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, mergeFixture)

	svc := NewMergeService(store, resolver, logger.NewNop())
	report, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: writeBatch(t, mergeBatch),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, "q001", report.Duplicates[0].ExistingID)
	assert.Equal(t, "n1", report.Duplicates[0].NewID)
	assert.Equal(t, 4, report.TotalAfter)

	raw, err := store.Read()
	require.NoError(t, err)
	questions := decodeQuestions(t, raw)
	require.Len(t, questions, 4)

	// Sequential IDs continue after the highest existing ext- suffix.
	assert.Equal(t, "ext-003", questions[2].ID)
	assert.Equal(t, "What is OSPF?", questions[2].Question)
	assert.Equal(t, "ext-004", questions[3].ID)

	var doc entities.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.NotEqual(t, "2024-06-01", doc.LastUpdated)
	assert.NotEmpty(t, doc.LastUpdated)
}

func TestMergeWritesBackupFirst(t *testing.T) {
	store, resolver := newTestStorage(t)
	path := seedDocument(t, resolver, mergeFixture)

	svc := NewMergeService(store, resolver, logger.NewNop())
	report, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: writeBatch(t, mergeBatch),
	})
	require.NoError(t, err)

	require.NotEmpty(t, report.BackupPath)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "backup"), filepath.Dir(report.BackupPath))

	backup, err := os.ReadFile(report.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, mergeFixture, string(backup), "backup must hold the pre-merge contents")
}

func TestMergeDryRunTouchesNothing(t *testing.T) {
	store, resolver := newTestStorage(t)
	path := seedDocument(t, resolver, mergeFixture)

	svc := NewMergeService(store, resolver, logger.NewNop())
	report, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: writeBatch(t, mergeBatch),
		DryRun:    true,
	})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Added)
	assert.Empty(t, report.BackupPath)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mergeFixture, string(after))

	_, err = os.Stat(filepath.Join(filepath.Dir(path), "backup"))
	assert.True(t, os.IsNotExist(err))
}

func TestMergeAcceptsBareArrayBatch(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, mergeFixture)

	batch := `[{"id": "n9", "question": "What is NAT?", "options": ["a", "b"], "correctAnswer": ["a"]}]`

	svc := NewMergeService(store, resolver, logger.NewNop())
	report, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: writeBatch(t, batch),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 3, report.TotalAfter)
}

func TestMergeCustomPrefix(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, `{"questions": [], "version": "1.0.0", "lastUpdated": ""}`)

	batch := `[{"id": "n1", "question": "What is QoS?", "options": ["a", "b"], "correctAnswer": ["a"]}]`

	svc := NewMergeService(store, resolver, logger.NewNop())
	_, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: writeBatch(t, batch),
		IDPrefix:  "imp",
	})
	require.NoError(t, err)

	raw, err := store.Read()
	require.NoError(t, err)
	questions := decodeQuestions(t, raw)
	require.Len(t, questions, 1)
	assert.Equal(t, "imp-001", questions[0].ID)
}

func TestMergeMissingBatchFile(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, mergeFixture)

	svc := NewMergeService(store, resolver, logger.NewNop())
	_, err := svc.Merge(context.Background(), ports.MergeRequest{
		InputPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
	assert.Equal(t, entities.ErrorKindFileRead, entities.KindOf(err))
}
