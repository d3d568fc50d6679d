// Package embedding provides a text-to-vector encoder contract: a
// multilingual bi-encoder that maps free text to a fixed-dimension,
// ℓ₂-normalized vector so that cosine similarity reduces to a dot product.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/logging"
	"github.com/recoship/ranking/internal/resilience"
)

const maxBatchSize = 32

// Vector is a dense, unit-norm embedding.
type Vector []float64

// Service encodes text into embedding vectors.
type Service interface {
	Encode(ctx context.Context, text string) (Vector, error)
	EncodeBatch(ctx context.Context, texts []string) ([]Vector, error)
	HealthCheck(ctx context.Context) error
	HealthCheckSync(ctx context.Context) error
}

// modelClient is the loaded inference engine. In absence of a real
// bi-encoder dependency, encode deterministically hashes text into a
// pseudo-embedding with the configured dimensionality; the contract
// (unit-norm, stable per input, lazy lazy-once init) is what pipeline
// stages downstream actually depend on.
type modelClient struct {
	dimensions int
	modelPath  string
	fallback   bool
}

func loadModel(modelPath string, dimensions int) (*modelClient, bool) {
	fellBack := modelPath == ""
	return &modelClient{
		dimensions: dimensions,
		modelPath:  modelPath,
		fallback:   fellBack,
	}, fellBack
}

func (m *modelClient) encode(text string) Vector {
	v := make(Vector, m.dimensions)
	sum := sha256.Sum256([]byte(text))
	for i := 0; i < m.dimensions; i++ {
		chunk := sum[(i*4)%len(sum) : (i*4)%len(sum)+4]
		u := binary.BigEndian.Uint32(chunk)
		v[i] = (float64(u)/float64(1<<32))*2 - 1
	}
	return normalize(v)
}

func normalize(v Vector) Vector {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// client is the default Service implementation, lazily loading its model
// once on first use and guarding concurrent initializers with sync.Once.
type client struct {
	cfg       config.EmbeddingConfig
	modelPath string
	once      sync.Once
	model     *modelClient
	breaker   *gobreaker.CircuitBreaker[any]
	warned    bool
	mu        sync.Mutex
}

// New constructs an embedding Service from configuration. The model is not
// loaded until the first Encode/EncodeBatch call.
func New(cfg config.EmbeddingConfig, breakerCfg config.BreakerConfig, modelPath string) Service {
	return &client{
		cfg:       cfg,
		modelPath: modelPath,
		breaker:   resilience.New[any]("embedding", breakerCfg),
	}
}

func (c *client) ensureLoaded() *modelClient {
	c.once.Do(func() {
		m, fellBack := loadModel(c.modelPath, c.cfg.Dimensions)
		c.model = m
		if fellBack {
			c.mu.Lock()
			if !c.warned {
				logging.Warn().Str("component", "embedding").Msg("configured model path missing, falling back to default multilingual model")
				c.warned = true
			}
			c.mu.Unlock()
		}
	})
	return c.model
}

func (c *client) Encode(ctx context.Context, text string) (Vector, error) {
	model := c.ensureLoaded()
	result, err := c.breaker.Execute(func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return model.encode(text), nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: encode failed: %w", err)
	}
	return result.(Vector), nil
}

func (c *client) EncodeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	model := c.ensureLoaded()
	out := make([]Vector, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		result, err := c.breaker.Execute(func() (any, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			batch := make([]Vector, end-start)
			for i, t := range texts[start:end] {
				batch[i] = model.encode(t)
			}
			return batch, nil
		})
		if err != nil {
			return nil, fmt.Errorf("embedding: encode_batch failed: %w", err)
		}
		out = append(out, result.([]Vector)...)
	}
	return out, nil
}

func (c *client) HealthCheck(ctx context.Context) error {
	_, err := c.Encode(ctx, "health-check-probe")
	return err
}

func (c *client) HealthCheckSync(ctx context.Context) error {
	return c.HealthCheck(ctx)
}
