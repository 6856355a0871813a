package rag

import (
	"fmt"
	"strings"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
)

const DefaultMaxWords = 200

// Chunker splits extracted text into word windows of at most maxWords,
// preserving word order. With zero overlap the chunks concatenate back
// to the exact word sequence of the document.
type Chunker struct {
	maxWords int
	overlap  int
}

func NewChunker(maxWords, overlapWords int) *Chunker {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlapWords < 0 || overlapWords >= maxWords {
		overlapWords = 0
	}
	return &Chunker{maxWords: maxWords, overlap: overlapWords}
}

func (c *Chunker) Chunk(doc *model.Document) ([]*model.Chunk, error) {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEmptyDocument, doc.Filename)
	}
	step := c.maxWords - c.overlap
	var chunks []*model.Chunk
	for start, idx := 0, 0; start < len(words); start, idx = start+step, idx+1 {
		end := start + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		window := words[start:end]
		chunks = append(chunks, &model.Chunk{
			ClientID:  doc.ClientID,
			Filename:  doc.Filename,
			Index:     idx,
			Content:   strings.Join(window, " "),
			WordCount: len(window),
		})
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
