package service

import (
	"github.com/xxxsen/docqa/internal/vectorstore"
)

// WrapStore adapts the vector store to the narrow write interface the
// ingestion orchestrator depends on.
func WrapStore(s *vectorstore.Store) IndexWriter {
	return storeWriter{s: s}
}

type storeWriter struct {
	s *vectorstore.Store
}

func (w storeWriter) Namespace(clientID string) DocumentIndex {
	return w.s.Namespace(clientID)
}
