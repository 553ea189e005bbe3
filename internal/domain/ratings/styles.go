package ratings

import "github.com/matchday/engine/internal/domain/model"

// DefaultStyles is the built-in archetype registry. Weights are chosen per
// sub-attribute in [0,1] and deliberately do not sum to a fixed total.
var DefaultStyles = []model.PlayStyle{
	{ID: "finisher", Name: "Finisher", Weights: model.StyleWeights{Pace: 0.6, Shooting: 1.0, Passing: 0.3, Dribbling: 0.5, Defending: 0.1, Physical: 0.4}},
	{ID: "playmaker", Name: "Playmaker", Weights: model.StyleWeights{Pace: 0.4, Shooting: 0.4, Passing: 1.0, Dribbling: 0.7, Defending: 0.2, Physical: 0.2}},
	{ID: "winger", Name: "Winger", Weights: model.StyleWeights{Pace: 1.0, Shooting: 0.5, Passing: 0.5, Dribbling: 0.9, Defending: 0.1, Physical: 0.3}},
	{ID: "anchor", Name: "Anchor", Weights: model.StyleWeights{Pace: 0.3, Shooting: 0.1, Passing: 0.5, Dribbling: 0.2, Defending: 1.0, Physical: 0.8}},
	{ID: "box_to_box", Name: "Box to Box", Weights: model.StyleWeights{Pace: 0.6, Shooting: 0.5, Passing: 0.6, Dribbling: 0.5, Defending: 0.6, Physical: 0.7}},
	{ID: "target", Name: "Target", Weights: model.StyleWeights{Pace: 0.2, Shooting: 0.8, Passing: 0.3, Dribbling: 0.2, Defending: 0.3, Physical: 1.0}},
}
