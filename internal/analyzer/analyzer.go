// Package analyzer adapts meal-photo analysis services. Every failure is
// reported as ErrUnavailable so callers can leave their state untouched and
// let the user retry.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/meltforce/fitvision/internal/nutrition"
)

// ErrUnavailable wraps every analyzer failure.
var ErrUnavailable = errors.New("meal analyzer unavailable")

// Analyzer estimates the contents of a meal photo.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*nutrition.Analysis, error)
}

// Unavailable is the analyzer used when none is configured.
type Unavailable struct{}

func (Unavailable) Analyze(context.Context, []byte, string) (*nutrition.Analysis, error) {
	return nil, fmt.Errorf("%w: no analyzer configured", ErrUnavailable)
}

// Limited rate limits calls to an Analyzer. Callers wait for a slot until
// their context is done.
type Limited struct {
	next    Analyzer
	limiter *rate.Limiter
}

// NewLimited allows perMinute calls per minute to next. perMinute <= 0
// disables limiting.
func NewLimited(next Analyzer, perMinute int) *Limited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (l *Limited) Analyze(ctx context.Context, image []byte, mimeType string) (*nutrition.Analysis, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limited: %v", ErrUnavailable, err)
	}
	return l.next.Analyze(ctx, image, mimeType)
}

// decodeResult parses an analysis document, tolerating a fenced code block
// around the JSON.
func decodeResult(raw string) (*nutrition.Analysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var a nutrition.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return nil, fmt.Errorf("%w: decoding analysis: %v", ErrUnavailable, err)
	}
	if a.TotalCalories <= 0 {
		for _, it := range a.Items {
			a.TotalCalories += it.Calories
		}
	}
	return &a, nil
}
