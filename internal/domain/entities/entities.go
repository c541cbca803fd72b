package entities

import (
	"encoding/json"
	"strings"
)

// DocumentVersion is the static version string written into freshly
// created documents. There is no migration logic behind it.
const DocumentVersion = "1.0.0"

// EmptyDocument is the minimal questions document written when neither an
// existing file nor a bundled default is available.
const EmptyDocument = `{"questions": [], "version": "1.0.0", "lastUpdated": ""}`

// Document is the interpreted-by-convention view of the questions file.
// Only the three conventional top-level keys are understood; individual
// question records stay raw so that fields this backend does not know
// about survive a merge untouched.
type Document struct {
	Questions   []json.RawMessage `json:"questions"`
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
}

// Question is the tolerant decoding of a single question record, used by
// analysis and merge. The save path never goes through this type.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2"`
	CorrectAnswer []string `json:"correctAnswer" validate:"min=1"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
	Subtopic      string   `json:"subtopic"`
	Difficulty    string   `json:"difficulty"`
}

// NormalizedText returns the question text lowercased with whitespace
// collapsed, the form used for duplicate detection.
func (q *Question) NormalizedText() string {
	return strings.Join(strings.Fields(strings.ToLower(q.Question)), " ")
}

// DuplicatePair records two questions whose normalized texts collide.
type DuplicatePair struct {
	ExistingID string `json:"existingId"`
	NewID      string `json:"newId"`
	Text       string `json:"text"`
}

// ReviewFinding lists the warnings raised against one question during
// analysis. Warnings never block a save.
type ReviewFinding struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings"`
}

// AnalysisReport summarizes the questions database.
type AnalysisReport struct {
	TotalQuestions int             `json:"totalQuestions"`
	Topics         map[string]int  `json:"topics"`
	Difficulties   map[string]int  `json:"difficulties"`
	DuplicateIDs   []string        `json:"duplicateIds"`
	DuplicateTexts []DuplicatePair `json:"duplicateTexts"`
	Reviews        []ReviewFinding `json:"reviews"`
	Undecodable    int             `json:"undecodable"`
	Version        string          `json:"version"`
	LastUpdated    string          `json:"lastUpdated"`
}

// MergeReport describes the outcome of merging an extraction batch into
// the live document.
type MergeReport struct {
	RunID      string          `json:"runId"`
	Added      int             `json:"added"`
	Duplicates []DuplicatePair `json:"duplicates"`
	TotalAfter int             `json:"totalAfter"`
	BackupPath string          `json:"backupPath,omitempty"`
	DryRun     bool            `json:"dryRun"`
}
