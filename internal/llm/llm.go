package llm

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/contentaware/internal/config"
)

const (
	defaultTimeout   = 120 * time.Second
	embedBatchSize   = 16
	embedConcurrency = 4
)

// Provider is the interface for LLM providers.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// Embedder is the interface for generating embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json")
}

func apiError(name string, resp *resty.Response) error {
	return fmt.Errorf("%s API returned %d: %s", name, resp.StatusCode(), resp.String())
}

// OllamaProvider is a local Ollama LLM provider.
type OllamaProvider struct {
	Model  string
	client *resty.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	return &OllamaProvider{Model: model, client: newClient(baseURL)}
}

func (o *OllamaProvider) Name() string { return "ollama" }

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := o.client.R().SetContext(ctx).SetResult(&result).Get("/api/tags")
	if err != nil || resp.IsError() {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Generate sends a prompt to Ollama and returns the response.
func (o *OllamaProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
		"options": map[string]any{
			"num_predict": maxTokens,
			"temperature": 0.1,
		},
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	resp, err := o.client.R().SetContext(ctx).SetBody(body).SetResult(&result).Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	if resp.IsError() {
		return "", apiError("ollama", resp)
	}
	return result.Message.Content, nil
}

// OllamaEmbedder generates embeddings via the Ollama API.
type OllamaEmbedder struct {
	Model  string
	client *resty.Client
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(model, baseURL string) *OllamaEmbedder {
	return &OllamaEmbedder{Model: model, client: newClient(baseURL)}
}

// Embed generates embeddings for the given texts. Large inputs are split
// into batches that are sent concurrently.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			vecs, err := e.embedBatch(gCtx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("ollama embed returned %d vectors for %d inputs", len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OllamaEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var result struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	resp, err := e.client.R().SetContext(ctx).
		SetBody(map[string]any{"model": e.Model, "input": texts}).
		SetResult(&result).
		Post("/api/embed")
	if err != nil {
		return nil, fmt.Errorf("ollama embed error: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("ollama embed", resp)
	}
	return result.Embeddings, nil
}

// ChatCompletionProvider talks to any OpenAI-compatible chat completions
// endpoint (OpenAI, Perplexity).
type ChatCompletionProvider struct {
	name   string
	Model  string
	APIKey string
	client *resty.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKeyEnv string) *ChatCompletionProvider {
	return newChatCompletionProvider("openai", "https://api.openai.com/v1", model, apiKeyEnv)
}

// NewPerplexityProvider creates a provider for the Perplexity API.
func NewPerplexityProvider(model, apiKeyEnv string) *ChatCompletionProvider {
	return newChatCompletionProvider("perplexity", "https://api.perplexity.ai", model, apiKeyEnv)
}

func newChatCompletionProvider(name, baseURL, model, apiKeyEnv string) *ChatCompletionProvider {
	return &ChatCompletionProvider{
		name:   name,
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: newClient(baseURL),
	}
}

func (o *ChatCompletionProvider) Name() string { return o.name }

// IsConfigured checks if the API key is set.
func (o *ChatCompletionProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt to the chat completions endpoint.
func (o *ChatCompletionProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("%s API key not configured", o.name)
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.1,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	resp, err := o.client.R().SetContext(ctx).
		SetAuthToken(o.APIKey).
		SetBody(body).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", o.name, err)
	}
	if resp.IsError() {
		return "", apiError(o.name, resp)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", o.name)
	}
	return result.Choices[0].Message.Content, nil
}

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	Model  string
	APIKey string
	client *resty.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(model, apiKeyEnv string) *AnthropicProvider {
	return &AnthropicProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: newClient("https://api.anthropic.com/v1").SetHeader("anthropic-version", "2023-06-01"),
	}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) IsConfigured() bool { return a.APIKey != "" }

// Generate sends a single-turn message and returns the concatenated text blocks.
func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("anthropic API key not configured")
	}

	body := map[string]any{
		"model":      a.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	resp, err := a.client.R().SetContext(ctx).
		SetHeader("x-api-key", a.APIKey).
		SetBody(body).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if resp.IsError() {
		return "", apiError("anthropic", resp)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in anthropic response")
	}
	return sb.String(), nil
}

// CohereProvider calls the Cohere v2 chat API.
type CohereProvider struct {
	Model  string
	APIKey string
	client *resty.Client
}

// NewCohereProvider creates a new Cohere provider.
func NewCohereProvider(model, apiKeyEnv string) *CohereProvider {
	return &CohereProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: newClient("https://api.cohere.com/v2"),
	}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) IsConfigured() bool { return c.APIKey != "" }

func (c *CohereProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("cohere API key not configured")
	}

	body := map[string]any{
		"model":       c.Model,
		"max_tokens":  maxTokens,
		"temperature": 0.1,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Message struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	}
	resp, err := c.client.R().SetContext(ctx).
		SetAuthToken(c.APIKey).
		SetBody(body).
		SetResult(&result).
		Post("/chat")
	if err != nil {
		return "", fmt.Errorf("cohere API error: %w", err)
	}
	if resp.IsError() {
		return "", apiError("cohere", resp)
	}
	if len(result.Message.Content) == 0 {
		return "", fmt.Errorf("no content in cohere response")
	}
	return result.Message.Content[0].Text, nil
}

// CreateProvider creates an LLM provider based on configuration. The
// configured provider is tried first; when it is not available the OpenAI
// key is tried as a fallback. Returns nil when nothing is usable.
func CreateProvider(cfg config.Classifier) Provider {
	var primary Provider
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		primary = NewOllamaProvider(cfg.Model, cfg.OllamaURL)
	case "anthropic":
		primary = NewAnthropicProvider(cfg.AnthropicModel, keyEnvFor(cfg.APIKeyEnv, "ANTHROPIC_API_KEY"))
	case "cohere":
		primary = NewCohereProvider(cfg.Model, keyEnvFor(cfg.APIKeyEnv, "COHERE_API_KEY"))
	case "perplexity":
		primary = NewPerplexityProvider(cfg.Model, keyEnvFor(cfg.APIKeyEnv, "PERPLEXITY_API_KEY"))
	case "openai":
	default:
		log.Printf("Unknown provider %q, trying OpenAI", cfg.Provider)
	}

	if primary != nil {
		if primary.IsConfigured() {
			log.Printf("Using %s for classification", primary.Name())
			return primary
		}
		log.Printf("%s not available, trying OpenAI fallback...", primary.Name())
	}

	keyEnv := "OPENAI_API_KEY"
	if primary == nil && cfg.APIKeyEnv != "" {
		keyEnv = cfg.APIKeyEnv
	}
	p := NewOpenAIProvider(cfg.OpenAIModel, keyEnv)
	if p.IsConfigured() {
		log.Printf("Using OpenAI with model: %s", cfg.OpenAIModel)
		return p
	}

	log.Println("No LLM provider available. Check Ollama is running or set OPENAI_API_KEY.")
	return nil
}

// keyEnvFor returns the configured key variable unless it is empty or the
// OpenAI default, in which case the provider's own variable is used.
func keyEnvFor(configured, own string) string {
	if configured == "" || configured == "OPENAI_API_KEY" {
		return own
	}
	return configured
}
