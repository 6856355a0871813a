package errors

import "errors"

// Failure taxonomy of the retrieval pipeline. Callers distinguish these
// with errors.Is; wrapped causes stay attached via %w.
var (
	ErrInvalid       = errors.New("invalid")
	ErrEmptyDocument = errors.New("document has no extractable text")
	ErrEmptyIndex    = errors.New("no ingested content for client")
	ErrEmbedding     = errors.New("embedding failed")
	ErrGeneration    = errors.New("generation failed")
	ErrStorage       = errors.New("storage unavailable")
	ErrModelMismatch = errors.New("embedding model mismatch")
)

func IsEmptyDocument(err error) bool {
	return errors.Is(err, ErrEmptyDocument)
}

func IsEmptyIndex(err error) bool {
	return errors.Is(err, ErrEmptyIndex)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
