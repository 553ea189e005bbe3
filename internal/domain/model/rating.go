package model

import (
	"fmt"
	"hash/fnv"
)

// Rating is one rater's assessment of one rated player for an evaluation
// cycle. The four headline metrics are each optional; a nil pointer means
// the rater skipped that metric.
type Rating struct {
	RaterID string
	RatedID string

	Attack      *float64 // 0..10
	Defense     *float64 // 0..10
	GameIQ      *float64 // 0..10
	Goalkeeping *float64 // 0..10

	// StyleID names a predefined archetype. Empty means no archetype was
	// chosen; the rater may instead flag sub-attributes directly via Custom.
	StyleID string
	Custom  *StyleFlags
}

// HasStyleSignal reports whether this rating carries any play-style
// information. Ratings without a signal are excluded from the sub-attribute
// denominator.
func (r Rating) HasStyleSignal() bool {
	return r.StyleID != "" || (r.Custom != nil && r.Custom.Any())
}

// StyleKey returns the grouping identity for the play-style distribution:
// the archetype id when one was chosen, otherwise an FNV-1a hash of the
// exact custom flag combination.
func (r Rating) StyleKey() string {
	if r.StyleID != "" {
		return r.StyleID
	}
	if r.Custom == nil {
		return ""
	}
	h := fnv.New32a()
	for _, b := range []bool{r.Custom.Pace, r.Custom.Shooting, r.Custom.Passing, r.Custom.Dribbling, r.Custom.Defending, r.Custom.Physical} {
		if b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	return fmt.Sprintf("custom:%08x", h.Sum32())
}

// StyleFlags marks which of the six sub-attributes a rater flagged directly.
type StyleFlags struct {
	Pace      bool
	Shooting  bool
	Passing   bool
	Dribbling bool
	Defending bool
	Physical  bool
}

// Any reports whether at least one flag is set.
func (f StyleFlags) Any() bool {
	return f.Pace || f.Shooting || f.Passing || f.Dribbling || f.Defending || f.Physical
}

// StyleWeights holds the per-sub-attribute weights of a play-style
// archetype. Weights are independently chosen in [0,1] and do not need to
// sum to any fixed total.
type StyleWeights struct {
	Pace      float64
	Shooting  float64
	Passing   float64
	Dribbling float64
	Defending float64
	Physical  float64
}

// PlayStyle is a named archetype with its sub-attribute weights.
type PlayStyle struct {
	ID      string
	Name    string
	Weights StyleWeights
}

// DerivedAttributes is the aggregate produced from all ratings of one
// player. It is fully recomputed whenever any of the player's ratings
// change, never patched incrementally.
type DerivedAttributes struct {
	PlayerID string

	// Six sub-attributes averaged over style-bearing ratings.
	Pace      float64
	Shooting  float64
	Passing   float64
	Dribbling float64
	Defending float64
	Physical  float64

	// Headline metrics averaged over non-nil submissions per metric.
	Attack      float64
	Defense     float64
	GameIQ      float64
	Goalkeeping float64

	// Modal play-style and its share of style-bearing ratings.
	TopStyle        string
	StyleConfidence float64
	StyleSamples    int
}
