package classify

import (
	"strings"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Worker pools tickets are routed to. Pools are role buckets, not individuals.
const (
	PoolGeneralMaintenance = "General Maintenance Pool"
	PoolPlumber            = "Plumber Pool"
	PoolElectrician        = "Electrician Pool"
	PoolLiftTechnician     = "Lift Technician Pool"
)

// ElderlyAgeThreshold is the resident age at or above which priority is
// forced to Critical (Elderly) regardless of the matched rule.
const ElderlyAgeThreshold = 65

// Result is the classification triple computed at ticket creation.
type Result struct {
	Category   domain.TicketCategory
	Priority   domain.TicketPriority
	AssignedTo string
	AlertLevel domain.AlertLevel
}

// rule maps description keywords to a routing decision. Rules are
// evaluated in slice order and a later match overwrites an earlier one.
type rule struct {
	keywords   []string
	category   domain.TicketCategory
	priority   domain.TicketPriority
	assignedTo string
}

// defaultRules preserves the production rule order. The ordering is a
// compatibility contract: "leak" plus "lift" in one description must
// classify as Lift Maintenance because the lift rule runs last.
var defaultRules = []rule{
	{
		keywords:   []string{"leak", "water", "pipe"},
		category:   domain.CategoryPlumbing,
		priority:   domain.PriorityHigh,
		assignedTo: PoolPlumber,
	},
	{
		keywords:   []string{"light", "power", "bulb"},
		category:   domain.CategoryElectrical,
		priority:   domain.PriorityLow,
		assignedTo: PoolElectrician,
	},
	{
		keywords:   []string{"lift", "elevator"},
		category:   domain.CategoryLift,
		priority:   domain.PriorityHigh,
		assignedTo: PoolLiftTechnician,
	},
}

// Engine classifies incident descriptions with an ordered rule list.
// It holds no external state and is safe for concurrent use.
type Engine struct {
	rules []rule
}

// NewEngine builds an engine with the production rule set.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules}
}

// Classify maps a raw description and reporter age to a category,
// priority and assignee pool. Matching is case-insensitive substring
// search; when keywords from several rules appear, the last rule in
// order wins. The elderly-age override is applied after all rules.
func (e *Engine) Classify(description string, residentAge int) Result {
	result := Result{
		Category:   domain.CategoryGeneral,
		Priority:   domain.PriorityMedium,
		AssignedTo: PoolGeneralMaintenance,
		AlertLevel: domain.AlertNormal,
	}

	desc := strings.ToLower(description)
	for _, r := range e.rules {
		if containsAny(desc, r.keywords) {
			result.Category = r.category
			result.Priority = r.priority
			result.AssignedTo = r.assignedTo
		}
	}

	if residentAge >= ElderlyAgeThreshold {
		result.Priority = domain.PriorityCritical
	}
	if result.Priority == domain.PriorityCritical {
		result.AlertLevel = domain.AlertEscalated
	}
	return result
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
