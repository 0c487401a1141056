package disease

// VisualEstimate is the outcome of inspecting a leaf observation.
type VisualEstimate struct {
	Risk     float64
	Findings []string
}

// VisualInspector turns a leaf observation into a risk estimate. The only
// signal available today is the environmental risk itself.
type VisualInspector interface {
	Inspect(environmentalRisk float64) VisualEstimate
}

// PlaceholderInspector derives the visual estimate deterministically from
// the environmental risk. It stands in until a perception model exists.
type PlaceholderInspector struct{}

// Inspect implements VisualInspector.
func (PlaceholderInspector) Inspect(env float64) VisualEstimate {
	switch {
	case env > 0.7:
		return VisualEstimate{
			Risk: clamp01(env + 0.2),
			Findings: []string{
				"Leaf discoloration patterns detected",
				"Possible fungal spots observed",
				"Leaf texture abnormalities noted",
			},
		}
	case env > 0.4:
		return VisualEstimate{
			Risk: clamp01(env + 0.1),
			Findings: []string{
				"Minor leaf discoloration observed",
				"Early stage symptoms possible",
			},
		}
	default:
		return VisualEstimate{
			Risk:     clamp01(env - 0.1),
			Findings: []string{"No obvious disease symptoms detected in leaf image"},
		}
	}
}
