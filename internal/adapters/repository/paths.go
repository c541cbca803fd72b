package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/examdesk/core/internal/domain/entities"
)

// DocumentFilename is the name of the questions document wherever it
// lives.
const DocumentFilename = "questions.json"

// devRelPath is the development-tree location of the document relative to
// the working directory (and to its parent, for runs launched from a
// nested build directory).
var devRelPath = filepath.Join("src", "data", DocumentFilename)

// Locations holds the explicit filesystem inputs to path resolution.
// Injecting them keeps resolution deterministic under test.
type Locations struct {
	WorkDir     string // current working directory
	ParentDir   string // parent of the working directory
	DataDir     string // per-user application-data directory
	ResourceDir string // read-only bundled-resource directory
}

// PathResolver chooses the canonical path of the questions document:
// development tree first, then the per-user data directory.
type PathResolver struct {
	loc Locations
}

// NewPathResolver creates a resolver over the given locations.
func NewPathResolver(loc Locations) *PathResolver {
	return &PathResolver{loc: loc}
}

// Resolve returns exactly one path, in precedence order:
//  1. <workdir>/src/data/questions.json, if it exists
//  2. <parentdir>/src/data/questions.json, if it exists
//  3. <datadir>/questions.json, creating the data directory if missing
//
// Branches 1 and 2 have no side effects; only branch 3 may create a
// directory.
func (r *PathResolver) Resolve() (string, error) {
	for _, base := range []string{r.loc.WorkDir, r.loc.ParentDir} {
		if base == "" {
			continue
		}
		candidate := filepath.Join(base, devRelPath)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	if r.loc.DataDir == "" {
		return "", entities.NewStoreError(entities.ErrorKindPathResolution, "resolve",
			fmt.Errorf("per-user data directory is not configured"))
	}

	if err := os.MkdirAll(r.loc.DataDir, 0o755); err != nil {
		return "", entities.NewStoreError(entities.ErrorKindDirectoryCreate, "resolve",
			fmt.Errorf("failed to create data directory %s: %w", r.loc.DataDir, err))
	}

	return filepath.Join(r.loc.DataDir, DocumentFilename), nil
}

// BundledDefaultPath returns the location of the optional bundled default
// document, or "" when no resource directory is configured.
func (r *PathResolver) BundledDefaultPath() string {
	if r.loc.ResourceDir == "" {
		return ""
	}
	return filepath.Join(r.loc.ResourceDir, "data", DocumentFilename)
}
