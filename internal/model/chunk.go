package model

// Chunk is a bounded word-span of one document, the unit of retrieval.
// (ClientID, Filename, Index) identifies it uniquely within the store.
type Chunk struct {
	ClientID  string `json:"client_id"`
	Filename  string `json:"filename"`
	Index     int    `json:"index"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// EmbeddedChunk pairs a chunk with the vector produced at ingestion time.
type EmbeddedChunk struct {
	Chunk     *Chunk
	Embedding []float32
}

// RetrievedChunk is one similarity-search hit.
type RetrievedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}
