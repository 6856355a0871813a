package model

// Namespace records which embedding model produced a client's index.
// Mixing embedding spaces silently degrades relevance, so ingestion and
// query both verify against this record.
type Namespace struct {
	ClientID   string `json:"client_id" db:"client_id"`
	EmbedModel string `json:"embed_model" db:"embed_model"`
	Ctime      int64  `json:"ctime" db:"ctime"`
}

type EmbeddingCache struct {
	ModelName   string
	TaskType    string
	ContentHash string
	Embedding   []float32
	Ctime       int64
}
