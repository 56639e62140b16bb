package pipeline

import (
	"testing"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/stretchr/testify/assert"
)

func names(alts []domain.AlternativeCare) []string {
	out := make([]string, 0, len(alts))
	for _, a := range alts {
		out = append(out, a.Name)
	}
	return out
}

func TestAlternatives(t *testing.T) {
	tests := []struct {
		level    domain.UrgencyLevel
		expected []string
	}{
		{domain.EMERGENCY_AMBULANCE, []string{"Emergency Room"}},
		{domain.EMERGENCY, []string{"Emergency Room", "Urgent Care"}},
		{domain.CONSULTATION_24, []string{"Urgent Care"}},
		{domain.CONSULTATION, []string{"Telemedicine"}},
		{domain.SELF_CARE, []string{"Telemedicine", "Self-Care at Home"}},
		{domain.UrgencyLevel("walk_in"), []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			alts := Alternatives(tt.level)
			assert.Equal(t, tt.expected, names(alts))
			for _, a := range alts {
				assert.True(t, a.Recommended)
			}
		})
	}
}

func TestAllAlternatives(t *testing.T) {
	all := AllAlternatives(domain.CONSULTATION_24)
	assert.Len(t, all, 4)

	recommended := map[string]bool{}
	for _, a := range all {
		recommended[a.Name] = a.Recommended
	}
	assert.Equal(t, map[string]bool{
		"Emergency Room":    false,
		"Urgent Care":       true,
		"Telemedicine":      false,
		"Self-Care at Home": false,
	}, recommended)

	er := all[0]
	assert.Equal(t, "$1,500 - $3,000", er.CostRange)
	assert.Equal(t, "24/7", er.Availability)
}

func TestAllAlternatives_DoesNotMutateTable(t *testing.T) {
	_ = AllAlternatives(domain.EMERGENCY)
	for _, alt := range alternativeTable {
		assert.False(t, alt.care.Recommended)
	}
}
