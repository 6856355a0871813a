package model

type Source struct {
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

// Answer is the generated text plus the chunks that produced it, in
// descending-score order. Unsupported marks an answer generated without
// any retrieved context backing it.
type Answer struct {
	Text          string   `json:"answer"`
	Sources       []Source `json:"sources"`
	Unsupported   bool     `json:"unsupported"`
	Model         string   `json:"model"`
	ContextChunks int      `json:"context_chunks_used"`
	ElapsedMs     int64    `json:"generation_time_ms"`
}
