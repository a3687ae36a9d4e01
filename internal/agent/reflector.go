package agent

import (
	"dexter/pkg/logger"
)

// Reflector inspects an execution round and decides whether the session
// proceeds to answering or attempts one bounded re-plan.
type Reflector struct {
	planner *Planner
	log     *logger.Logger
}

// NewReflector creates a reflector that consults the planner's alternate
// tool mappings.
func NewReflector(planner *Planner) *Reflector {
	return &Reflector{
		planner: planner,
		log:     logger.Get().With("component", "reflector"),
	}
}

// Reflect returns replan only when all three hold: this is still the
// first plan revision, at least one result is missing or failed, and the
// understanding carries enough information for a different tool mapping.
// Anything else proceeds, which bounds every query to two plans.
func (r *Reflector) Reflect(u Understanding, plan *Plan, results []ToolResult) Decision {
	if plan.Revision > 0 {
		return DecisionProceed
	}

	incomplete := len(results) < len(plan.Tasks)
	failed := len(failedResults(results)) > 0
	if !incomplete && !failed {
		return DecisionProceed
	}

	if !r.planner.HasAlternate(u, results) {
		r.log.Debug("Execution incomplete but no alternate tool mapping; proceeding")
		return DecisionProceed
	}

	r.log.Infof("Re-plan triggered: %d/%d result(s) failed at revision 0",
		len(failedResults(results)), len(plan.Tasks))

	return DecisionReplan
}
