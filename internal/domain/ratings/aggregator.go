// Package ratings turns raw peer ratings and play-style tags into
// per-player derived attributes.
package ratings

import (
	"github.com/matchday/engine/internal/domain/model"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithStyles replaces the archetype registry used to resolve predefined
// play-style ids.
func WithStyles(styles []model.PlayStyle) Option {
	return func(a *Aggregator) {
		a.styles = make(map[string]model.StyleWeights, len(styles))
		for _, s := range styles {
			a.styles[s.ID] = s.Weights
		}
	}
}

// Aggregator computes DerivedAttributes from the full rating set of one
// player. It is a pure function over its inputs; callers persist the result.
type Aggregator struct {
	styles map[string]model.StyleWeights
}

// New creates an Aggregator seeded with the default archetypes.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{styles: make(map[string]model.StyleWeights, len(DefaultStyles))}
	for _, s := range DefaultStyles {
		a.styles[s.ID] = s.Weights
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate recomputes the derived attributes for ratedID from scratch.
// Sub-attribute contributions use the archetype weight when a predefined
// style was chosen, or 1.0 for each directly flagged sub-attribute; the
// denominator counts only ratings carrying a style signal. Headline metrics
// average the non-nil submissions per metric with their own denominators.
func (a *Aggregator) Aggregate(ratedID string, rs []model.Rating) model.DerivedAttributes {
	out := model.DerivedAttributes{PlayerID: ratedID}

	var sub [6]float64
	styleBearing := 0
	styleCounts := make(map[string]int)

	var headlineSum [4]float64
	var headlineN [4]int

	for _, r := range rs {
		if r.RatedID != ratedID {
			continue
		}
		if r.HasStyleSignal() {
			styleBearing++
			styleCounts[r.StyleKey()]++
			w := a.contribution(r)
			for i := range sub {
				sub[i] += w[i]
			}
		}
		for i, v := range []*float64{r.Attack, r.Defense, r.GameIQ, r.Goalkeeping} {
			if v != nil {
				headlineSum[i] += *v
				headlineN[i]++
			}
		}
	}

	if styleBearing > 0 {
		n := float64(styleBearing)
		out.Pace = sub[0] / n
		out.Shooting = sub[1] / n
		out.Passing = sub[2] / n
		out.Dribbling = sub[3] / n
		out.Defending = sub[4] / n
		out.Physical = sub[5] / n
	}

	for i, dst := range []*float64{&out.Attack, &out.Defense, &out.GameIQ, &out.Goalkeeping} {
		if headlineN[i] > 0 {
			*dst = headlineSum[i] / float64(headlineN[i])
		}
	}

	out.StyleSamples = styleBearing
	out.TopStyle, out.StyleConfidence = modalStyle(styleCounts, styleBearing)
	return out
}

// contribution returns the six per-sub-attribute weights one rating adds.
func (a *Aggregator) contribution(r model.Rating) [6]float64 {
	if r.StyleID != "" {
		if w, ok := a.styles[r.StyleID]; ok {
			return [6]float64{w.Pace, w.Shooting, w.Passing, w.Dribbling, w.Defending, w.Physical}
		}
		// Unknown archetype still counts in the denominator but adds nothing.
		return [6]float64{}
	}
	var out [6]float64
	if r.Custom != nil {
		for i, flagged := range []bool{r.Custom.Pace, r.Custom.Shooting, r.Custom.Passing, r.Custom.Dribbling, r.Custom.Defending, r.Custom.Physical} {
			if flagged {
				out[i] = 1.0
			}
		}
	}
	return out
}

// modalStyle picks the most common style key deterministically: highest
// count wins, ties broken by lexicographically smaller key.
func modalStyle(counts map[string]int, total int) (string, float64) {
	if total == 0 {
		return "", 0
	}
	var top string
	best := -1
	for key, n := range counts {
		if n > best || (n == best && key < top) {
			top, best = key, n
		}
	}
	return top, float64(best) / float64(total)
}
