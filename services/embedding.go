package services

import (
	"context"
	"errors"
	"net"
	"net/http"

	"hippocampus/config"
	"hippocampus/utils"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// IsTransientGeminiError reports quota and server-side failures of the
// embedding API, plus network timeouts.
func IsTransientGeminiError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return isTransientStatus(apiErrPtr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
	retrier    *utils.Retrier
}

type GeminiOption func(*GeminiEmbedder)

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiEmbedder) {
		g.model = model
	}
}

func WithDimensions(dims int) GeminiOption {
	return func(g *GeminiEmbedder) {
		g.dimensions = int32(dims)
	}
}

func NewGeminiEmbedder(ctx context.Context, cfg config.GeminiConfig, retrier *utils.Retrier, opts ...GeminiOption) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiEmbedder{
		client:     client,
		model:      "gemini-embedding-001",
		dimensions: 1024,
		retrier:    retrier,
	}
	if cfg.Model != "" {
		g.model = cfg.Model
	}

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// EmbedDocument embeds text for storage.
func (g *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, taskRetrievalDocument)
}

// EmbedQuery embeds search text.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, taskRetrievalQuery)
}

func (g *GeminiEmbedder) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	var values []float32
	err := g.retrier.Do(ctx, "embed", func(ctx context.Context) error {
		resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: genai.Ptr(g.dimensions),
		})
		if err != nil {
			return err
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return goerr.New("empty embedding response", goerr.V("model", g.model))
		}
		values = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(values) != int(g.dimensions) {
		return nil, goerr.New("unexpected embedding size",
			goerr.V("model", g.model),
			goerr.V("expected", g.dimensions),
			goerr.V("actual", len(values)))
	}
	return values, nil
}
