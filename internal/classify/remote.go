package classify

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/contentaware/internal/llm"
)

const remotePrompt = `You are organizing a personal collection of files into folders by content.

Classify the file below into exactly one content type from this list:
%s

If nothing fits, use "general".

File name: %s
Language: %s
Content (truncated):
%s

Respond with ONLY this JSON:
{
    "content_type": "one of the listed types",
    "confidence": 0.0-1.0,
    "purpose": %s,
    "tags": ["short", "lowercase", "keywords"],
    "summary": "One sentence describing the file"
}`

// RemoteClassifier asks an LLM provider for a verdict. Any failure falls
// back to the heuristic verdict for that document only.
type RemoteClassifier struct {
	provider  llm.Provider
	fallback  *HeuristicClassifier
	maxTokens int
	maxChars  int
}

// NewRemote creates a remote classifier.
func NewRemote(provider llm.Provider, fallback *HeuristicClassifier, maxTokens, maxChars int) *RemoteClassifier {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &RemoteClassifier{provider: provider, fallback: fallback, maxTokens: maxTokens, maxChars: maxChars}
}

func (r *RemoteClassifier) Name() string { return "remote:" + r.provider.Name() }

// Classify returns the provider's verdict, or the heuristic one when the
// call fails or the response is unusable. The error is always nil.
func (r *RemoteClassifier) Classify(ctx context.Context, doc Document) (Verdict, error) {
	v, err := r.classifyRemote(ctx, doc)
	if err != nil {
		log.Printf("Remote classification failed for %s, using heuristics: %v", doc.Path, err)
		return r.fallback.Evaluate(doc), nil
	}
	return v, nil
}

func (r *RemoteClassifier) classifyRemote(ctx context.Context, doc Document) (Verdict, error) {
	content := truncate(doc.Content, r.maxChars)
	if strings.TrimSpace(content) == "" {
		return Verdict{}, fmt.Errorf("no text content")
	}

	lang := doc.Language
	if lang == "" {
		lang = Unknown
	}

	prompt := fmt.Sprintf(remotePrompt,
		strings.Join(r.fallback.Types.Categories(), ", "),
		filepath.Base(doc.Path),
		lang,
		content,
		quoteList(r.fallback.Purposes.Categories()),
	)

	responseText, err := r.provider.Generate(ctx, prompt, r.maxTokens)
	if err != nil {
		return Verdict{}, err
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return Verdict{}, fmt.Errorf("unparseable response")
	}

	contentType := strings.ToLower(strings.TrimSpace(llm.GetString(parsed, "content_type", "")))
	if !r.fallback.Types.Has(contentType) {
		return Verdict{}, fmt.Errorf("unknown content type %q", contentType)
	}

	purpose := strings.ToLower(llm.GetString(parsed, "purpose", General))
	if !r.fallback.Purposes.Has(purpose) {
		purpose = General
	}

	var tags []string
	for _, tag := range llm.GetStrings(parsed, "tags") {
		tags = append(tags, strings.ToLower(strings.TrimSpace(tag)))
		if len(tags) == maxTags {
			break
		}
	}

	return Verdict{
		ContentType: contentType,
		Confidence:  clamp01(llm.GetFloat(parsed, "confidence", 0.5)),
		Purpose:     purpose,
		Tags:        tags,
		Summary:     llm.GetString(parsed, "summary", ""),
		Source:      r.Name(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Avoid cutting a multi-byte rune in half.
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = `"` + it + `"`
	}
	return strings.Join(quoted, " | ")
}
