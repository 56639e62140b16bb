package scoring

import (
	"fmt"

	"github.com/care-router-mcp-server/internal/domain"
)

// Reasoning explains a score with the same thresholds the components use.
// Lines come in urgency, specialist, availability order.
func Reasoning(level domain.UrgencyLevel, specialist string, hoursUntil, specialistScore, availabilityScore float64) []string {
	reasons := make([]string, 0, 3)
	days := daysUntil(hoursUntil)

	if level.IsEmergency() {
		if hoursUntil < 24 {
			reasons = append(reasons, fmt.Sprintf("Available within %d hours (urgent case)", int(hoursUntil)))
		} else {
			reasons = append(reasons, fmt.Sprintf("%d days wait (urgent case needs sooner)", days))
		}
	} else if days <= 7 {
		reasons = append(reasons, fmt.Sprintf("Available within %d days", days))
	}

	switch {
	case specialistScore >= 0.8:
		reasons = append(reasons, fmt.Sprintf("Matches recommended specialist (%s)", specialist))
	case specialistScore >= 0.7:
		reasons = append(reasons, "Primary care provider (can handle general cases)")
	default:
		reasons = append(reasons, "Different specialty than recommended")
	}

	switch {
	case availabilityScore >= 0.9:
		reasons = append(reasons, "Excellent availability")
	case availabilityScore >= 0.7:
		reasons = append(reasons, "Good availability")
	}

	return reasons
}
