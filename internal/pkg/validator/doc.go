// Package validator validates request and event structs with go-playground/validator v10.
//
// Failures come back as V10ValidationError keyed by snake_case field names so the
// router can render them directly. Domain-specific string rules are registered
// through Rule when the validator is built.
package validator
