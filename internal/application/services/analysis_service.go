package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/examdesk/core/internal/domain/entities"
	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/ports"
)

// minExplanationLength below which an explanation is flagged for review.
const minExplanationLength = 50

// AnalysisService inspects the questions database and reports counts,
// duplicates and per-question review warnings. It never mutates the
// document.
type AnalysisService struct {
	store    ports.DocumentStore
	validate *validator.Validate
	logger   *logger.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(store ports.DocumentStore, logger *logger.Logger) *AnalysisService {
	return &AnalysisService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// Analyze reads the live document and builds a report. Question records
// that do not decode into the conventional shape are counted, not
// rejected; the document remains opaque to the save path.
func (s *AnalysisService) Analyze(ctx context.Context) (*entities.AnalysisReport, error) {
	raw, err := s.store.Read()
	if err != nil {
		return nil, err
	}

	var doc entities.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, entities.NewStoreError(entities.ErrorKindJSONParse, "analyze",
			fmt.Errorf("document is not a questions structure: %w", err))
	}

	report := &entities.AnalysisReport{
		TotalQuestions: len(doc.Questions),
		Topics:         make(map[string]int),
		Difficulties:   make(map[string]int),
		Version:        doc.Version,
		LastUpdated:    doc.LastUpdated,
	}

	seenIDs := make(map[string]bool)
	seenTexts := make(map[string]string)

	for _, rawQuestion := range doc.Questions {
		var q entities.Question
		if err := json.Unmarshal(rawQuestion, &q); err != nil {
			report.Undecodable++
			continue
		}

		topic := q.Topic
		if topic == "" {
			topic = "UNKNOWN"
		}
		report.Topics[topic]++

		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = "UNKNOWN"
		}
		report.Difficulties[difficulty]++

		if q.ID != "" {
			if seenIDs[q.ID] {
				report.DuplicateIDs = append(report.DuplicateIDs, q.ID)
			}
			seenIDs[q.ID] = true
		}

		if text := q.NormalizedText(); text != "" {
			if existingID, ok := seenTexts[text]; ok {
				report.DuplicateTexts = append(report.DuplicateTexts, entities.DuplicatePair{
					ExistingID: existingID,
					NewID:      q.ID,
					Text:       truncate(q.Question, 100),
				})
			} else {
				seenTexts[text] = q.ID
			}
		}

		if warnings := s.reviewQuestion(&q); len(warnings) > 0 {
			report.Reviews = append(report.Reviews, entities.ReviewFinding{
				ID:       q.ID,
				Warnings: warnings,
			})
		}
	}

	sort.Strings(report.DuplicateIDs)

	s.logger.Info("Questions analyzed",
		"total", report.TotalQuestions,
		"duplicate_ids", len(report.DuplicateIDs),
		"reviews", len(report.Reviews),
	)

	return report, nil
}

// reviewQuestion collects the warnings for one question. These mirror the
// review tooling around the database: structural checks first, then
// content heuristics.
func (s *AnalysisService) reviewQuestion(q *entities.Question) []string {
	var warnings []string

	if err := s.validate.Struct(q); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return append(warnings, err.Error())
		}
		for _, fieldErr := range validationErrors {
			switch fieldErr.Field() {
			case "ID":
				warnings = append(warnings, "missing id")
			case "Question":
				warnings = append(warnings, "missing question text")
			case "Options":
				warnings = append(warnings, "fewer than two options")
			case "CorrectAnswer":
				warnings = append(warnings, "no correct answer set")
			}
		}
	}

	if q.Explanation == "" {
		warnings = append(warnings, "missing explanation")
	} else if len(q.Explanation) < minExplanationLength {
		warnings = append(warnings, "explanation too short")
	}

	return warnings
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
