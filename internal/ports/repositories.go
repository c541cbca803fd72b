package ports

// PathResolver picks the single on-disk location of the questions
// document for a given call. Resolution is repeated on every call, never
// cached, so external changes to the working tree are observed.
type PathResolver interface {
	// Resolve returns the document path, creating the per-user data
	// directory when the development-tree locations are absent.
	Resolve() (string, error)
}

// DocumentStore owns the questions document file at the resolved path.
type DocumentStore interface {
	// EnsureInitialized guarantees a syntactically valid document exists:
	// existing file, bundled default copy, or the minimal empty structure.
	EnsureInitialized() error

	// Save validates documentText as JSON, pretty-prints it and
	// overwrites the resolved path. On a parse failure the existing file
	// is left untouched. Returns a confirmation naming the path written.
	Save(documentText string) (string, error)

	// Read ensures the document exists and returns the raw file contents
	// verbatim, preserving whatever formatting is on disk.
	Read() (string, error)
}
