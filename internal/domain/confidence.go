package domain

// ConfidenceTier buckets an AI confidence percentage for display.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

const (
	highConfidenceFloor   = 80
	mediumConfidenceFloor = 50
)

// Tier classifies a confidence score. Lower bounds are inclusive and
// out-of-range input is not clamped.
func Tier(confidence float64) ConfidenceTier {
	if confidence >= highConfidenceFloor {
		return ConfidenceHigh
	}
	if confidence >= mediumConfidenceFloor {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// AISuggestion is an upstream team recommendation. Confidence is a percentage.
type AISuggestion struct {
	Team       string
	Confidence float64
	Rank       int
}

// Tier classifies the suggestion without modifying it.
func (s AISuggestion) Tier() ConfidenceTier {
	return Tier(s.Confidence)
}
