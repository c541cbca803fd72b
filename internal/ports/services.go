package ports

import (
	"context"

	"github.com/examdesk/core/internal/domain/entities"
)

// QuestionsService is the command surface the GUI front end invokes. Any
// transport (HTTP, CLI, direct call) can bind to it.
type QuestionsService interface {
	Greet(name string) string
	SaveQuestions(ctx context.Context, questionsJSON string) (string, error)
	ReadQuestions(ctx context.Context) (string, error)
	Initialize(ctx context.Context) error
}

// AnalysisService interface for questions database inspection
type AnalysisService interface {
	Analyze(ctx context.Context) (*entities.AnalysisReport, error)
}

// MergeService interface for folding extraction batches into the live document
type MergeService interface {
	Merge(ctx context.Context, req MergeRequest) (*entities.MergeReport, error)
}

// MergeRequest describes one merge run.
type MergeRequest struct {
	// InputPath is the extraction batch file. Its questions array may be
	// wrapped in a document or stand bare.
	InputPath string `json:"input_path" validate:"required"`

	// IDPrefix is used when assigning identifiers to incoming questions;
	// empty means "ext".
	IDPrefix string `json:"id_prefix"`

	// DryRun previews the merge without touching the document or writing
	// a backup.
	DryRun bool `json:"dry_run"`
}
