package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/examdesk/core/internal/domain/entities"
	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/ports"
)

// defaultIDPrefix marks questions that arrived via a merge run.
const defaultIDPrefix = "ext"

// MergeService folds an extraction batch into the live questions
// document: duplicates (by normalized question text) are skipped, new
// questions get sequential prefixed IDs, and the current file is backed
// up beside the document before anything is overwritten.
type MergeService struct {
	store    ports.DocumentStore
	resolver ports.PathResolver
	logger   *logger.Logger
}

// NewMergeService creates a new merge service
func NewMergeService(store ports.DocumentStore, resolver ports.PathResolver, logger *logger.Logger) *MergeService {
	return &MergeService{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// Merge runs one merge. With DryRun set, the report is produced without
// writing a backup or touching the document.
func (s *MergeService) Merge(ctx context.Context, req ports.MergeRequest) (*entities.MergeReport, error) {
	prefix := req.IDPrefix
	if prefix == "" {
		prefix = defaultIDPrefix
	}

	raw, err := s.store.Read()
	if err != nil {
		return nil, err
	}

	var doc entities.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, entities.NewStoreError(entities.ErrorKindJSONParse, "merge",
			fmt.Errorf("document is not a questions structure: %w", err))
	}

	incoming, err := loadBatch(req.InputPath)
	if err != nil {
		return nil, err
	}

	report := &entities.MergeReport{
		RunID:  uuid.New().String(),
		DryRun: req.DryRun,
	}

	existingTexts := make(map[string]string)
	for _, rawQuestion := range doc.Questions {
		var q entities.Question
		if err := json.Unmarshal(rawQuestion, &q); err != nil {
			continue
		}
		if text := q.NormalizedText(); text != "" {
			existingTexts[text] = q.ID
		}
	}

	nextID := nextSequence(doc.Questions, prefix)

	for _, rawQuestion := range incoming {
		var q entities.Question
		if err := json.Unmarshal(rawQuestion, &q); err != nil {
			// Unrecognized records are carried over untouched rather
			// than dropped.
			doc.Questions = append(doc.Questions, rawQuestion)
			report.Added++
			continue
		}

		text := q.NormalizedText()
		if existingID, ok := existingTexts[text]; ok && text != "" {
			report.Duplicates = append(report.Duplicates, entities.DuplicatePair{
				ExistingID: existingID,
				NewID:      q.ID,
				Text:       truncate(q.Question, 100),
			})
			continue
		}

		assigned, err := assignID(rawQuestion, fmt.Sprintf("%s-%03d", prefix, nextID))
		if err != nil {
			return nil, entities.NewStoreError(entities.ErrorKindJSONParse, "merge",
				fmt.Errorf("failed to assign id: %w", err))
		}
		nextID++

		doc.Questions = append(doc.Questions, assigned)
		if text != "" {
			existingTexts[text] = q.ID
		}
		report.Added++
	}

	report.TotalAfter = len(doc.Questions)

	if req.DryRun {
		s.logger.Info("Merge dry run", "run_id", report.RunID, "added", report.Added, "duplicates", len(report.Duplicates))
		return report, nil
	}

	backupPath, err := s.backupCurrent(raw, report.RunID)
	if err != nil {
		return nil, err
	}
	report.BackupPath = backupPath

	doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if doc.Version == "" {
		doc.Version = entities.DocumentVersion
	}

	merged, err := json.Marshal(&doc)
	if err != nil {
		return nil, entities.NewStoreError(entities.ErrorKindJSONParse, "merge",
			fmt.Errorf("failed to serialize merged document: %w", err))
	}

	if _, err := s.store.Save(string(merged)); err != nil {
		return nil, err
	}

	s.logger.Info("Merge completed",
		"run_id", report.RunID,
		"added", report.Added,
		"duplicates", len(report.Duplicates),
		"total", report.TotalAfter,
		"backup", backupPath,
	)

	return report, nil
}

// backupCurrent copies the current document contents into a backup/
// directory next to the document before the merge overwrites it.
func (s *MergeService) backupCurrent(contents, runID string) (string, error) {
	path, err := s.resolver.Resolve()
	if err != nil {
		return "", err
	}

	backupDir := filepath.Join(filepath.Dir(path), "backup")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", entities.NewStoreError(entities.ErrorKindDirectoryCreate, "merge",
			fmt.Errorf("failed to create backup directory: %w", err))
	}

	name := fmt.Sprintf("questions-%s-%s.json", time.Now().UTC().Format("20060102-150405"), runID[:8])
	backupPath := filepath.Join(backupDir, name)

	if err := os.WriteFile(backupPath, []byte(contents), 0o644); err != nil {
		return "", entities.NewStoreError(entities.ErrorKindFileWrite, "merge",
			fmt.Errorf("failed to write backup: %w", err))
	}

	return backupPath, nil
}

// loadBatch reads an extraction file. Both a full document and a bare
// questions array are accepted; the extraction tooling produced both.
func loadBatch(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, entities.NewStoreError(entities.ErrorKindFileRead, "merge",
			fmt.Errorf("failed to read batch file: %w", err))
	}

	var doc entities.Document
	if err := json.Unmarshal(data, &doc); err == nil && doc.Questions != nil {
		return doc.Questions, nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, entities.NewStoreError(entities.ErrorKindJSONParse, "merge",
			fmt.Errorf("batch file %s is neither a document nor a questions array: %w", path, err))
	}

	return bare, nil
}

// nextSequence returns one past the highest numeric suffix among existing
// IDs of the form <prefix>-NNN.
func nextSequence(questions []json.RawMessage, prefix string) int {
	next := 1
	for _, rawQuestion := range questions {
		var q entities.Question
		if err := json.Unmarshal(rawQuestion, &q); err != nil {
			continue
		}
		rest, ok := strings.CutPrefix(q.ID, prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// assignID rewrites the id field of a raw question record, leaving every
// other field exactly as extracted.
func assignID(rawQuestion json.RawMessage, id string) (json.RawMessage, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(rawQuestion, &fields); err != nil {
		return nil, err
	}
	fields["id"] = id
	return json.Marshal(fields)
}
