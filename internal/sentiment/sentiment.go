// Package sentiment scores free text into a bounded polarity score, label,
// and confidence, with a deterministic lexicon fast-path ahead of the
// classifier for strongly-polarized, frequently repeated phrasing.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/metrics"
	"github.com/recoship/ranking/internal/resilience"
)

// Label is the coarse sentiment classification derived from Score.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// Result is the outcome of scoring one piece of text.
type Result struct {
	Score      float64
	Label      Label
	Confidence float64
	// LexiconMatch is true when the result came from the deterministic
	// phrase matcher rather than the classifier.
	LexiconMatch bool
}

// LabelFromScore applies the fixed positive/negative thresholds.
func LabelFromScore(score float64) Label {
	switch {
	case score > positiveThreshold:
		return Positive
	case score < negativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// ScoreFromProbabilities converts a k-class probability vector into a
// score in [-1,1] per the documented per-class conversion rules.
func ScoreFromProbabilities(probs []float64) float64 {
	switch len(probs) {
	case 2:
		return probs[0] - probs[1] // p(pos) - p(neg)
	case 3:
		// [pos, neutral, neg]; neutral contributes 0.
		return probs[0] - probs[2]
	case 5:
		var weighted float64
		for i, p := range probs {
			weighted += float64(i+1) * p
		}
		return (weighted - 3) / 2
	default:
		if len(probs) == 0 {
			return 0
		}
		argmax := 0
		for i, p := range probs {
			if p > probs[argmax] {
				argmax = i
			}
		}
		if len(probs) == 1 {
			return 0
		}
		return (float64(argmax)/float64(len(probs)-1))*2 - 1
	}
}

// Service classifies free text into a sentiment Result.
type Service interface {
	Analyze(ctx context.Context, text string) Result
	HealthCheck(ctx context.Context) error
	HealthCheckSync(ctx context.Context) error
}

// classifier is the loaded inference engine, reporting its class count so
// ScoreFromProbabilities can switch at call time per a possibly-swapped
// model file.
type classifier struct {
	classes int
}

func (m *classifier) infer(text string) ([]float64, error) {
	// Deterministic placeholder inference: distributes probability mass by
	// a simple polarity heuristic over curated positive/negative keyword
	// hits, standing in for the loaded bi-encoder/classifier pair.
	lower := strings.ToLower(text)
	var posHits, negHits int
	for _, w := range positiveKeywords {
		if strings.Contains(lower, w) {
			posHits++
		}
	}
	for _, w := range negativeKeywords {
		if strings.Contains(lower, w) {
			negHits++
		}
	}
	total := posHits + negHits
	probs := make([]float64, m.classes)
	if total == 0 {
		for i := range probs {
			probs[i] = 1.0 / float64(m.classes)
		}
		return probs, nil
	}
	posShare := float64(posHits) / float64(total)
	switch m.classes {
	case 2:
		probs[0], probs[1] = posShare, 1-posShare
	case 3:
		probs[0] = posShare * 0.9
		probs[2] = (1 - posShare) * 0.9
		probs[1] = 1 - probs[0] - probs[2]
	case 5:
		for i := range probs {
			probs[i] = 0.04
		}
		star := int(posShare * 4)
		probs[star] = 0.8
	default:
		probs[0] = 1
	}
	return probs, nil
}

var positiveKeywords = []string{"excellent", "great", "good", "recommend", "love", "amazing"}
var negativeKeywords = []string{"terrible", "bad", "awful", "never again", "hate", "mauvais"}

type client struct {
	cfg     config.SentimentConfig
	model   *classifier
	lexicon *cache.PatternMatcher
	breaker *gobreaker.CircuitBreaker[Result]
}

// lexiconEntry associates a curated phrase with its polarity.
type lexiconEntry struct {
	phrase   string
	positive bool
}

var defaultLexicon = []lexiconEntry{
	{"excellent service", true},
	{"je recommande", true},
	{"très satisfait", true},
	{"parfait", true},
	{"très mauvais", false},
	{"jamais plus", false},
	{"ne recommande pas", false},
	{"très déçu", false},
}

// New constructs a sentiment Service. classCount is the number of classes
// the loaded classifier emits (2, 3, or 5 are handled explicitly; any
// other value falls back to the documented argmax conversion).
func New(cfg config.SentimentConfig, breakerCfg config.BreakerConfig, classCount int) Service {
	matcher := buildLexicon()
	return &client{
		cfg:     cfg,
		model:   &classifier{classes: classCount},
		lexicon: matcher,
		breaker: resilience.New[Result]("sentiment", breakerCfg),
	}
}

func buildLexicon() *cache.PatternMatcher {
	patterns := make(map[string]any, len(defaultLexicon))
	for _, e := range defaultLexicon {
		patterns[e.phrase] = e.positive
	}
	return cache.NewPatternMatcher(patterns)
}

// Analyze never returns an error: on any inference failure it returns a
// neutral result (score 0, confidence 0) so Core A can always proceed.
func (c *client) Analyze(ctx context.Context, text string) Result {
	if r, ok := c.lexiconFastPath(text); ok {
		metrics.SentimentScoreDistribution.Observe(r.Score)
		return r
	}

	result, err := c.breaker.Execute(func() (Result, error) {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		probs, err := c.model.infer(text)
		if err != nil {
			return Result{}, fmt.Errorf("sentiment: inference failed: %w", err)
		}
		score := ScoreFromProbabilities(probs)
		confidence := maxProb(probs)
		return Result{
			Score:      score,
			Label:      LabelFromScore(score),
			Confidence: confidence,
		}, nil
	})
	if err != nil {
		return Result{Score: 0, Label: Neutral, Confidence: 0}
	}
	metrics.SentimentScoreDistribution.Observe(result.Score)
	return result
}

// lexiconFastPath scans text against the curated phrase dictionary; a
// clear positive/negative match-count asymmetry short-circuits to a
// trivially distinguishable result (confidence 1.0, score ±1.0) without an
// inference call. Ties or no matches fall through to the classifier.
func (c *client) lexiconFastPath(text string) (Result, bool) {
	matches := c.lexicon.Match(strings.ToLower(text))
	if len(matches) == 0 {
		return Result{}, false
	}
	var pos, neg int
	for _, m := range matches {
		if positive, _ := m.Data.(bool); positive {
			pos++
		} else {
			neg++
		}
	}
	const margin = 1
	switch {
	case pos-neg >= margin && pos > neg:
		return Result{Score: 1.0, Label: Positive, Confidence: 1.0, LexiconMatch: true}, true
	case neg-pos >= margin && neg > pos:
		return Result{Score: -1.0, Label: Negative, Confidence: 1.0, LexiconMatch: true}, true
	default:
		return Result{}, false
	}
}

func maxProb(probs []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	m := probs[0]
	for _, p := range probs[1:] {
		if p > m {
			m = p
		}
	}
	return m
}

func (c *client) HealthCheck(ctx context.Context) error {
	_ = c.Analyze(ctx, "health-check-probe")
	return nil
}

func (c *client) HealthCheckSync(ctx context.Context) error {
	return c.HealthCheck(ctx)
}
