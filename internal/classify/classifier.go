package classify

import (
	"context"
	"fmt"
	"log"

	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/llm"
)

const maxTags = 10

// HeuristicName is the Source recorded for keyword-table verdicts.
const HeuristicName = "heuristic"

// Document is the classifier input.
type Document struct {
	Path     string
	Content  string
	Language string
}

// Verdict is a classifier's decision about a document.
type Verdict struct {
	ContentType string
	Confidence  float64
	Purpose     string
	Tags        []string
	Summary     string
	Source      string
}

// Classifier maps a document to a content type.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, doc Document) (Verdict, error)
}

// HeuristicClassifier scores documents against the static keyword tables.
// It is a pure function of its input.
type HeuristicClassifier struct {
	Types    Table
	Purposes Table
}

// NewHeuristic returns a classifier over the default tables.
func NewHeuristic() *HeuristicClassifier {
	return &HeuristicClassifier{Types: ContentTypes, Purposes: Purposes}
}

func (h *HeuristicClassifier) Name() string { return HeuristicName }

// Classify never returns an error.
func (h *HeuristicClassifier) Classify(_ context.Context, doc Document) (Verdict, error) {
	return h.Evaluate(doc), nil
}

// Evaluate is Classify without the context and error plumbing.
func (h *HeuristicClassifier) Evaluate(doc Document) Verdict {
	ct := h.Types.Classify(doc.Content, doc.Path)
	purpose := h.Purposes.Classify(doc.Content, doc.Path)

	tags := ct.Matched
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	return Verdict{
		ContentType: ct.Category,
		Confidence:  ct.Confidence,
		Purpose:     purpose.Category,
		Tags:        tags,
		Source:      HeuristicName,
	}
}

// Select picks the classifier once at startup. Mode "heuristic" never calls
// out; "remote" requires a provider; "auto" uses the provider when one is
// available and the heuristic tables otherwise.
func Select(cfg config.Classifier, provider llm.Provider) (Classifier, error) {
	heuristic := NewHeuristic()
	switch cfg.Mode {
	case "heuristic":
		return heuristic, nil
	case "remote":
		if provider == nil {
			return nil, fmt.Errorf("classifier mode is remote but no LLM provider is available")
		}
		return NewRemote(provider, heuristic, cfg.MaxTokens, cfg.MaxPromptChars), nil
	case "auto", "":
		if provider == nil {
			log.Println("No LLM provider available, using heuristic classifier")
			return heuristic, nil
		}
		return NewRemote(provider, heuristic, cfg.MaxTokens, cfg.MaxPromptChars), nil
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Mode)
	}
}
