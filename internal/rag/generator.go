package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
)

const (
	EmptyPolicyRefuse      = "refuse"
	EmptyPolicyUnsupported = "unsupported"

	// NoInfoAnswer is returned under the refuse policy when retrieval
	// produced nothing to ground an answer on.
	NoInfoAnswer = "No relevant information was found in the ingested documents."
	// NoCorpusAnswer is the user-visible text for a client that has not
	// ingested anything yet.
	NoCorpusAnswer = "No documents have been ingested for this client yet."

	maxExcerptRunes = 240
)

type GeneratorConfig struct {
	TimeoutSeconds int
	MaxTokens      int
	EmptyPolicy    string
}

// Generator assembles the prompt from retrieved chunks and invokes the
// generation capability under a timeout. It is stateless across calls.
type Generator struct {
	gen       ai.IGenerator
	modelName string
	cfg       GeneratorConfig
}

func NewGenerator(gen ai.IGenerator, modelName string, cfg GeneratorConfig) *Generator {
	if cfg.EmptyPolicy == "" {
		cfg.EmptyPolicy = EmptyPolicyRefuse
	}
	return &Generator{gen: gen, modelName: modelName, cfg: cfg}
}

func (g *Generator) Generate(ctx context.Context, query string, retrieved []*model.RetrievedChunk) (*model.Answer, error) {
	if len(retrieved) == 0 {
		if g.cfg.EmptyPolicy == EmptyPolicyUnsupported {
			return g.generateUnsupported(ctx, query)
		}
		return &model.Answer{
			Text:    NoInfoAnswer,
			Sources: []model.Source{},
			Model:   g.modelName,
		}, nil
	}
	prompt := buildPrompt(query, retrieved)
	text, elapsed, err := g.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	sources := make([]model.Source, 0, len(retrieved))
	for _, item := range retrieved {
		sources = append(sources, model.Source{
			Filename: item.Chunk.Filename,
			Excerpt:  excerpt(item.Chunk.Content, maxExcerptRunes),
			Score:    item.Score,
		})
	}
	return &model.Answer{
		Text:          text,
		Sources:       sources,
		Model:         g.modelName,
		ContextChunks: len(retrieved),
		ElapsedMs:     elapsed.Milliseconds(),
	}, nil
}

// generateUnsupported answers from the model's own knowledge and flags
// the result as unbacked by any retrieved context.
func (g *Generator) generateUnsupported(ctx context.Context, query string) (*model.Answer, error) {
	prompt := fmt.Sprintf(`You are a helpful assistant.
No supporting documents were found for this question; answer from general knowledge and say so when unsure.

QUESTION: %s

ANSWER:`, query)
	text, elapsed, err := g.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Warn("answer generated without retrieved context")
	return &model.Answer{
		Text:        text,
		Sources:     []model.Source{},
		Unsupported: true,
		Model:       g.modelName,
		ElapsedMs:   elapsed.Milliseconds(),
	}, nil
}

func (g *Generator) invoke(ctx context.Context, prompt string) (string, time.Duration, error) {
	if g.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	start := time.Now()
	resp, err := g.gen.Generate(ctx, prompt, g.cfg.MaxTokens)
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, fmt.Errorf("%w: %v", apperrors.ErrGeneration, err)
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", elapsed, fmt.Errorf("%w: empty model response", apperrors.ErrGeneration)
	}
	logutil.GetLogger(ctx).Debug("generation done", zap.Duration("elapsed", elapsed), zap.Int("prompt_chars", len(prompt)))
	return text, elapsed, nil
}

// buildPrompt lays out an instruction frame, the retrieved chunks in
// descending-score order tagged with their source files, and the
// question.
func buildPrompt(query string, retrieved []*model.RetrievedChunk) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant that answers questions based on provided document context.\n\nCONTEXT:\n")
	for _, item := range retrieved {
		sb.WriteString("[Source: ")
		sb.WriteString(item.Chunk.Filename)
		sb.WriteString("]\n")
		sb.WriteString(item.Chunk.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("QUESTION: ")
	sb.WriteString(query)
	sb.WriteString(`

INSTRUCTIONS:
- Answer the question using ONLY the information from the provided context.
- Be concise but comprehensive.
- If the context does not contain enough information to answer fully, say so.
- Cite specific document names when relevant.

ANSWER:`)
	return sb.String()
}

func excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
