// Package scorer computes the confidence tier of a contact record from its
// current field values.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/config"
)

// DefaultScoringConfig returns a config.ScoringConfig with the standard
// weights. Weights sum to 100.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: config.ScoringWeights{
			Name:        20,
			Location:    20,
			Email:       30,
			Phone:       15,
			Correlation: 15,
		},

		// Thresholds.
		HighThreshold:   80,
		MediumThreshold: 60,
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.ScoringConfig) int {
	return c.Weights.Sum()
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	// All weights must be non-negative.
	weights := map[string]int{
		"name":        c.Weights.Name,
		"location":    c.Weights.Location,
		"email":       c.Weights.Email,
		"phone":       c.Weights.Phone,
		"correlation": c.Weights.Correlation,
	}
	for _, name := range []string{"name", "location", "email", "phone", "correlation"} {
		if weights[name] < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}

	if sum := WeightSum(c); sum != 100 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %d", sum))
	}

	// A location or phone that turns a correlation check into a mismatch
	// must still add points overall.
	if c.Weights.Correlation > c.Weights.Location || c.Weights.Correlation > c.Weights.Phone {
		errs = append(errs, "correlation weight must not exceed the location or phone weight")
	}

	// Thresholds.
	if c.HighThreshold < 0 || c.HighThreshold > 100 {
		errs = append(errs, "high_threshold must be between 0 and 100")
	}
	if c.MediumThreshold < 0 || c.MediumThreshold >= c.HighThreshold {
		errs = append(errs, "medium_threshold must be >= 0 and below high_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
