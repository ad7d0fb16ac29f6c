package sla

import (
	"time"

	"github.com/converso/routing-service/internal/domain"
)

// Budget is the pair of time allowances attached to a priority.
type Budget struct {
	Response   time.Duration
	Resolution time.Duration
}

// DueSoonWindow is how close to the response deadline a conversation may
// get before it is flagged due_soon.
const DueSoonWindow = 15 * time.Minute

var policyTable = map[domain.Priority]Budget{
	domain.PriorityLow:    {Response: 60 * time.Minute, Resolution: 1440 * time.Minute},
	domain.PriorityMed:    {Response: 30 * time.Minute, Resolution: 720 * time.Minute},
	domain.PriorityHigh:   {Response: 15 * time.Minute, Resolution: 240 * time.Minute},
	domain.PriorityUrgent: {Response: 5 * time.Minute, Resolution: 120 * time.Minute},
}

// BudgetFor returns the policy budget for a priority. Unknown or empty
// priorities fall back to low.
func BudgetFor(priority domain.Priority) Budget {
	if budget, ok := policyTable[priority]; ok {
		return budget
	}
	return policyTable[domain.PriorityLow]
}
