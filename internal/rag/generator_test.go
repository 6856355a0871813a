package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xxxsen/docqa/internal/model"
	apperrors "github.com/xxxsen/docqa/internal/pkg/errors"
)

type fakeGen struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGen) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func retrievedFixture() []*model.RetrievedChunk {
	return []*model.RetrievedChunk{
		{Chunk: &model.Chunk{Filename: "guide.txt", Content: "the capital is Springfield"}, Score: 0.92},
		{Chunk: &model.Chunk{Filename: "notes.md", Content: "population two million"}, Score: 0.71},
	}
}

func TestGeneratorAnswerWithSources(t *testing.T) {
	gen := &fakeGen{reply: "Springfield is the capital."}
	g := NewGenerator(gen, "chat-a", GeneratorConfig{TimeoutSeconds: 5, MaxTokens: 128})

	answer, err := g.Generate(context.Background(), "what is the capital?", retrievedFixture())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer.Text != "Springfield is the capital." {
		t.Fatalf("unexpected answer: %s", answer.Text)
	}
	if answer.Unsupported {
		t.Error("grounded answer flagged unsupported")
	}
	if answer.ContextChunks != 2 || len(answer.Sources) != 2 {
		t.Fatalf("sources not carried: %+v", answer)
	}
	if answer.Sources[0].Filename != "guide.txt" || answer.Sources[0].Score != 0.92 {
		t.Errorf("first source wrong: %+v", answer.Sources[0])
	}
	if !strings.Contains(gen.lastPrompt, "[Source: guide.txt]") {
		t.Error("prompt missing source tag")
	}
	if !strings.Contains(gen.lastPrompt, "QUESTION: what is the capital?") {
		t.Error("prompt missing question")
	}
}

func TestGeneratorEmptyRetrievalRefuses(t *testing.T) {
	gen := &fakeGen{reply: "should never be called"}
	g := NewGenerator(gen, "chat-a", GeneratorConfig{EmptyPolicy: EmptyPolicyRefuse})

	answer, err := g.Generate(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer.Text != NoInfoAnswer {
		t.Fatalf("unexpected refusal text: %s", answer.Text)
	}
	if gen.lastPrompt != "" {
		t.Error("refuse policy must not invoke the model")
	}
	if len(answer.Sources) != 0 || answer.Unsupported {
		t.Errorf("refusal answer malformed: %+v", answer)
	}
}

func TestGeneratorEmptyRetrievalUnsupported(t *testing.T) {
	gen := &fakeGen{reply: "From general knowledge: no idea."}
	g := NewGenerator(gen, "chat-a", GeneratorConfig{EmptyPolicy: EmptyPolicyUnsupported})

	answer, err := g.Generate(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !answer.Unsupported {
		t.Error("unsupported policy must flag the answer")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("unsupported answer must not claim sources: %+v", answer.Sources)
	}
	if gen.lastPrompt == "" {
		t.Error("unsupported policy should invoke the model")
	}
}

func TestGeneratorFailure(t *testing.T) {
	g := NewGenerator(&fakeGen{err: errors.New("model crashed")}, "chat-a", GeneratorConfig{})
	_, err := g.Generate(context.Background(), "q", retrievedFixture())
	if !errors.Is(err, apperrors.ErrGeneration) {
		t.Fatalf("got %v, want ErrGeneration", err)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := NewGenerator(&fakeGen{reply: "   \n"}, "chat-a", GeneratorConfig{})
	_, err := g.Generate(context.Background(), "q", retrievedFixture())
	if !errors.Is(err, apperrors.ErrGeneration) {
		t.Fatalf("got %v, want ErrGeneration", err)
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("x", maxExcerptRunes+50)
	got := excerpt(long, maxExcerptRunes)
	if len([]rune(got)) != maxExcerptRunes+3 {
		t.Fatalf("excerpt length %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatal("excerpt missing ellipsis")
	}
	short := "short text"
	if excerpt(short, maxExcerptRunes) != short {
		t.Fatal("short text must pass through")
	}
}
