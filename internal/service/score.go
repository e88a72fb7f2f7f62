package service

import (
	"fmt"

	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

const (
	minSubScore = 0
	maxSubScore = 100
)

// AggregateScores returns the unweighted mean of the five sub-scores rounded half-up.
func AggregateScores(scores models.EvaluationScores) (int, error) {
	values := scores.Values()
	sum := 0
	for _, v := range values {
		if v < minSubScore || v > maxSubScore {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("scores must be between %d and %d", minSubScore, maxSubScore))
		}
		sum += v
	}
	// round(sum/5) without floats: (2*sum + 5) / 10
	return (sum*2 + len(values)) / (2 * len(values)), nil
}
