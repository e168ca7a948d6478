// Package validator provides declarative input validation built from small
// Rule values.
//
// Each rule pairs a boolean Check with the field-level error reported when
// the check fails. Apply evaluates every rule and aggregates failures into
// ValidationErrors, which implements error, so several field problems can be
// returned at once:
//
//	err := validator.Apply(
//	    validator.Required("message", p.Message),
//	    validator.MaxLen("message", p.Message, 1000),
//	    validator.UUID("goal_id", p.GoalID),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    // inspect verrs.Fields(), verrs.Get("message"), ...
//	}
//
// Rules are plain values with no shared state; the package is safe for
// concurrent use.
package validator
