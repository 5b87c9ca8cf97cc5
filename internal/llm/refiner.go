// Package llm fills listing fields the heuristics could not find with a
// language model.
package llm

import (
	"context"
	"strconv"
	"strings"

	"github.com/raine/telegram-shafa-bot/internal/extract"
)

// Suggestion is what the model read from a post. Empty fields are unknown.
type Suggestion struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Size  string `json:"size"`
	Color string `json:"color"`
	Price string `json:"price"`
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Suggester reads listing fields from a post text.
type Suggester interface {
	Suggest(ctx context.Context, text string) (*Suggestion, error)
}

// Refiner completes an extracted listing.
type Refiner interface {
	Refine(ctx context.Context, text string, listing extract.ExtractedListing) (extract.ExtractedListing, error)
}

// Merge copies suggested values into the fields the listing left empty.
// Values already extracted are never replaced.
func Merge(listing extract.ExtractedListing, s *Suggestion) extract.ExtractedListing {
	if s == nil {
		return listing
	}
	if listing.Name == "" {
		listing.Name = strings.TrimSpace(s.Name)
	}
	if listing.Brand == "" {
		listing.Brand = strings.TrimSpace(s.Brand)
	}
	if listing.Size == "" {
		if size := cleanNumber(s.Size); size != "" {
			listing.Size = size
		} else {
			listing.Size = strings.ToUpper(strings.TrimSpace(s.Size))
		}
	}
	if listing.Color == "" {
		listing.Color = strings.ToLower(strings.TrimSpace(s.Color))
	}
	if listing.Price == "" {
		listing.Price = cleanNumber(s.Price)
	}
	if listing.AdditionalSizes == nil {
		listing.AdditionalSizes = []string{}
	}
	listing.Confidence = extract.Score(listing.Name, listing.Price, listing.Size, listing.Brand, listing.Color)
	return listing
}

// cleanNumber returns the positive number in s in extraction's format, or "".
func cleanNumber(s string) string {
	n := extract.NormalizeNumber(strings.TrimSpace(s))
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || f <= 0 {
		return ""
	}
	return n
}

type suggestRefiner struct {
	s Suggester
}

// NewRefiner turns a Suggester into a Refiner.
func NewRefiner(s Suggester) Refiner {
	return suggestRefiner{s: s}
}

func (r suggestRefiner) Refine(ctx context.Context, text string, listing extract.ExtractedListing) (extract.ExtractedListing, error) {
	s, err := r.s.Suggest(ctx, text)
	if err != nil {
		return listing, err
	}
	return Merge(listing, s), nil
}
