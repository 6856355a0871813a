package model

type RejectedDocument struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// IngestionReport summarizes one ingestion batch. Per-document failures
// end up in Rejected; they never abort the batch.
type IngestionReport struct {
	BatchID    string             `json:"batch_id"`
	ClientID   string             `json:"client_id"`
	Accepted   int                `json:"accepted"`
	Rejected   []RejectedDocument `json:"rejected"`
	ChunkCount int                `json:"chunk_count"`
}
