// Package scorer defines the (image, prompt) → (score, confidence)
// capability that feeds observations into the value map, plus the
// deterministic and unavailable backends selected by configuration.
package scorer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
)

var (
	// ErrBackendUnavailable is returned by backends that are configured
	// but not present in this build.
	ErrBackendUnavailable = errors.New("scorer: backend unavailable")
	// ErrUnknownBackend indicates a backend name New does not recognise.
	ErrUnknownBackend = errors.New("scorer: unknown backend")
)

// Backend names accepted by New.
const (
	BackendHash  = "hash"
	BackendBLIP2 = "blip2"
)

// Result is a relevance score and its confidence, both in [0,1].
type Result struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Scorer rates how well an image matches a text prompt.
type Scorer interface {
	Score(img image.Image, prompt string) (Result, error)
}

// New returns the scorer for backend. Unimplemented backends come back as
// an UnavailableScorer rather than an error so callers can hold the value
// and fail only when they actually score.
func New(backend string, seed int) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendHash:
		return HashScorer{Seed: seed}, nil
	case BackendBLIP2:
		return UnavailableScorer{Backend: BackendBLIP2}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// HashScorer is a deterministic stand-in with no model dependency. The
// score blends the image's mean grey level with a stable hash of the
// prompt and seed.
type HashScorer struct {
	Seed int
}

const hashModulus = 1000003

// Score implements Scorer.
func (s HashScorer) Score(img image.Image, prompt string) (Result, error) {
	mean := clip01(meanGray(img))

	h := 0
	for _, b := range []byte(prompt + "|" + strconv.Itoa(s.Seed)) {
		h = (h*131 + int(b)) % hashModulus
	}
	base := float64(h%1000) / 999.0

	return Result{
		Score:      clip01(0.25*mean + 0.75*base),
		Confidence: clip01(0.6 + 0.3*(base-0.5)),
	}, nil
}

// meanGray returns the mean of the R, G and B channels of img in [0,1],
// an unweighted per-pixel channel average. A nil or empty image reads as 0.
func meanGray(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return 0
	}
	px := imaging.Clone(img)
	var sum float64
	n := 0
	for i := 0; i+3 < len(px.Pix); i += 4 {
		sum += (float64(px.Pix[i]) + float64(px.Pix[i+1]) + float64(px.Pix[i+2])) / 3
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 255.0
}

func clip01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// UnavailableScorer stands in for a backend that is not built in. It
// constructs without error and fails every Score call.
type UnavailableScorer struct {
	Backend string
}

// Score implements Scorer.
func (u UnavailableScorer) Score(image.Image, string) (Result, error) {
	return Result{}, fmt.Errorf("%w: %s is not available in this build; use the %q backend",
		ErrBackendUnavailable, u.Backend, BackendHash)
}

// Observe scores img against prompt and packages the result as an
// observation centred on center.
func Observe(s Scorer, img image.Image, prompt string, center l1grid.Cell, radiusCells int) (l3value.Observation, error) {
	if s == nil {
		return l3value.Observation{}, fmt.Errorf("%w: nil scorer", l1grid.ErrInvalidArgument)
	}
	res, err := s.Score(img, prompt)
	if err != nil {
		return l3value.Observation{}, err
	}
	return l3value.Observation{
		Center:      center,
		Score:       res.Score,
		Confidence:  res.Confidence,
		RadiusCells: radiusCells,
	}, nil
}
