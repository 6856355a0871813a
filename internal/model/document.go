package model

// Document is the unit of ingestion: extracted text plus provenance.
// It is never persisted whole; only its chunks survive ingestion.
type Document struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
}
