// Package openai provides an embed.Provider backed by any OpenAI-compatible
// embeddings endpoint (OpenAI, Ollama, LocalAI, vLLM).
package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
)

// Config holds the endpoint settings.
type Config struct {
	// Host is the API base URL, e.g. "http://localhost:11434/v1".
	Host string
	// Model is the embedding model identifier.
	Model string
	// Token is the API key; local servers accept any value.
	Token string
	// BatchSize bounds the number of texts per request (0 = library default).
	BatchSize int
}

// Normalize ensures the host ends with /v1, which OpenAI-compatible servers
// expect.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	c.Normalize()
	if c.Host == "" {
		return errors.Join(internalerr.ErrInvalidConfig, errors.New("openai embedder: host is required"))
	}
	if c.Model == "" {
		return errors.Join(internalerr.ErrInvalidConfig, errors.New("openai embedder: model is required"))
	}
	return nil
}

// Provider implements embed.Provider using langchaingo.
type Provider struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ embed.Provider = (*Provider)(nil)

// New creates a provider for the configured endpoint.
func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(cfg.Token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, errors.Join(internalerr.ErrResourceUnavailable, err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, errors.Join(internalerr.ErrResourceUnavailable, err)
	}

	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder", "model", cfg.Model),
	}, nil
}

// Embed implements embed.Provider.
func (p *Provider) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	p.logger.Debug("embedding batch", "size", len(batch))

	vecs, err := p.embedder.EmbedDocuments(ctx, batch)
	if err != nil {
		p.logger.Error("failed to generate embeddings", "err", err)
		return nil, err
	}
	if len(vecs) != len(batch) {
		p.logger.Warn("embedder returned unexpected result count", "want", len(batch), "got", len(vecs))
		return nil, embed.ErrBatchMismatch
	}
	return vecs, nil
}
