package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pricematch/backend/internal/domain"
)

// Client defaults
const (
	DefaultModel          = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"
	DefaultDimension      = 384
	DefaultTimeout        = 30 * time.Second
	DefaultRequestsPerSec = 10.0
	DefaultBurst          = 10
	DefaultCacheTTL       = 24 * time.Hour

	cacheKeyPrefix = "embedding:"
)

// Config holds embedding client configuration
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Dimension      int
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	CacheTTL       time.Duration
}

// Client calls an OpenAI-compatible embeddings endpoint. It never retries;
// a failed call surfaces as domain.ErrEmbeddingFailure.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	dimension   int
	rateLimiter *rate.Limiter
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewClient creates a new embedding client. cache may be nil.
func NewClient(config Config, cache domain.CacheRepository, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("%w: embedding base URL is required", domain.ErrInvalidConfig)
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Dimension <= 0 {
		config.Dimension = DefaultDimension
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RequestsPerSec <= 0 {
		config.RequestsPerSec = DefaultRequestsPerSec
	}
	if config.Burst <= 0 {
		config.Burst = DefaultBurst
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		model:       config.Model,
		dimension:   config.Dimension,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst),
		cache:       cache,
		cacheTTL:    config.CacheTTL,
		logger:      logger.With().Str("component", "embedding").Str("model", config.Model).Logger(),
	}, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Embed returns the embedding vector for text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vector, ok := c.cached(ctx, key); ok {
		return vector, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrEmbeddingFailure, err)
	}

	vector, err := c.request(ctx, text)
	if err != nil {
		c.logger.Warn().Err(err).Str("text", text).Msg("embedding request failed")
		return nil, err
	}

	c.store(ctx, key, vector)
	return vector, nil
}

// Dimension returns the vector size the client enforces
func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) request(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrEmbeddingFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrEmbeddingFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PriceMatch/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrEmbeddingFailure, err)
	}

	var parsed embeddingResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrEmbeddingFailure, resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrEmbeddingFailure, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingFailure, decodeErr)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrEmbeddingFailure)
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", domain.ErrEmbeddingFailure, len(vector), c.dimension)
	}
	return vector, nil
}

func (c *Client) cacheKey(text string) string {
	return cacheKeyPrefix + strconv.FormatUint(xxhash.Sum64String(c.model+"\x00"+text), 16)
}

func (c *Client) cached(ctx context.Context, key string) ([]float32, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Debug().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil || len(vector) != c.dimension {
		return nil, false
	}
	return vector, true
}

// store is best effort; a cache failure never fails the embedding
func (c *Client) store(ctx context.Context, key string, vector []float32) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Debug().Err(err).Msg("embedding cache write failed")
	}
}
