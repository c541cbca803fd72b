package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/examdesk/core/internal/domain/entities"
)

// FileDocumentStore keeps the questions document as a single JSON file at
// the resolved path. The document content is treated as an opaque tree:
// save validates syntax and pretty-prints, read returns bytes verbatim.
type FileDocumentStore struct {
	resolver *PathResolver
}

// NewFileDocumentStore creates a file-backed document store.
func NewFileDocumentStore(resolver *PathResolver) *FileDocumentStore {
	return &FileDocumentStore{resolver: resolver}
}

// EnsureInitialized makes sure a document exists at the resolved path. An
// existing file is left alone. Otherwise the bundled default is copied
// when present; a missing bundled default is an expected deployment
// variance, not a failure, and the minimal empty structure is written
// instead.
func (s *FileDocumentStore) EnsureInitialized() error {
	path, err := s.resolver.Resolve()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if bundled := s.resolver.BundledDefaultPath(); bundled != "" {
		if data, err := os.ReadFile(bundled); err == nil {
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return entities.NewStoreError(entities.ErrorKindFileWrite, "init",
					fmt.Errorf("failed to copy bundled default to %s: %w", path, err))
			}
			return nil
		}
	}

	if err := os.WriteFile(path, []byte(entities.EmptyDocument), 0o644); err != nil {
		return entities.NewStoreError(entities.ErrorKindFileWrite, "init",
			fmt.Errorf("failed to create empty document at %s: %w", path, err))
	}

	return nil
}

// Save parses documentText, rejecting it before any disk access when the
// JSON is malformed, then overwrites the resolved path with a
// pretty-printed rendering. The write is a plain overwrite; there is no
// temp-file/rename step.
func (s *FileDocumentStore) Save(documentText string) (string, error) {
	path, err := s.resolver.Resolve()
	if err != nil {
		return "", err
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(documentText), &parsed); err != nil {
		return "", entities.NewStoreError(entities.ErrorKindJSONParse, "save",
			fmt.Errorf("invalid JSON: %w", err))
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", entities.NewStoreError(entities.ErrorKindJSONParse, "save",
			fmt.Errorf("failed to format JSON: %w", err))
	}

	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return "", entities.NewStoreError(entities.ErrorKindFileWrite, "save",
			fmt.Errorf("failed to write file: %w", err))
	}

	return fmt.Sprintf("Questions saved successfully to %s", path), nil
}

// Read ensures the document exists and returns its raw contents without
// re-parsing, preserving on-disk formatting verbatim.
func (s *FileDocumentStore) Read() (string, error) {
	if err := s.EnsureInitialized(); err != nil {
		return "", err
	}

	path, err := s.resolver.Resolve()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", entities.NewStoreError(entities.ErrorKindFileRead, "read",
			fmt.Errorf("failed to read file: %w", err))
	}

	return string(data), nil
}
