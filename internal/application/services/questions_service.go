package services

import (
	"context"
	"fmt"

	"github.com/examdesk/core/internal/infrastructure/logger"
	"github.com/examdesk/core/internal/ports"
)

// QuestionsService handles the commands the GUI front end invokes against
// the questions document.
type QuestionsService struct {
	store  ports.DocumentStore
	logger *logger.Logger
}

// NewQuestionsService creates a new questions service
func NewQuestionsService(store ports.DocumentStore, logger *logger.Logger) *QuestionsService {
	return &QuestionsService{
		store:  store,
		logger: logger,
	}
}

// Greet is pure string formatting with no I/O. It shares the command
// surface with the document operations.
func (s *QuestionsService) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from ExamDesk!", name)
}

// SaveQuestions validates and persists the document text, returning a
// confirmation naming the path written.
func (s *QuestionsService) SaveQuestions(ctx context.Context, questionsJSON string) (string, error) {
	confirmation, err := s.store.Save(questionsJSON)
	if err != nil {
		s.logger.LogStoreOperation("save", err)
		return "", err
	}

	s.logger.Info("Questions saved", "bytes", len(questionsJSON))
	return confirmation, nil
}

// ReadQuestions returns the raw document contents, initializing the file
// first when it does not exist yet.
func (s *QuestionsService) ReadQuestions(ctx context.Context) (string, error) {
	contents, err := s.store.Read()
	if err != nil {
		s.logger.LogStoreOperation("read", err)
		return "", err
	}

	return contents, nil
}

// Initialize ensures the document exists. Called once at startup; the
// caller downgrades a failure here to a warning so launch continues.
func (s *QuestionsService) Initialize(ctx context.Context) error {
	if err := s.store.EnsureInitialized(); err != nil {
		s.logger.LogStoreOperation("init", err)
		return err
	}

	return nil
}
