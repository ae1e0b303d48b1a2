package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError blocks the originating write entirely. Document names the
// offending record, Rule the specific check that failed.
type ValidationError struct {
	Document string
	Rule     string
}

func (e *ValidationError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("validation failed: %s", e.Rule)
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Document, e.Rule)
}

func NewValidationError(document, rule string) error {
	return &ValidationError{Document: document, Rule: rule}
}

// PolicyError marks a transition attempted from the wrong state or without a
// required precondition (e.g. submitting with no manager assigned).
type PolicyError struct {
	Document string
	Rule     string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: policy violation: %s", e.Document, e.Rule)
}

func NewPolicyError(document, rule string) error {
	return &PolicyError{Document: document, Rule: rule}
}

// AuthorizationError marks an actor who is not the required approver for the
// document's current pending level.
type AuthorizationError struct {
	Document string
	Rule     string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: not authorized: %s", e.Document, e.Rule)
}

func NewAuthorizationError(document, rule string) error {
	return &AuthorizationError{Document: document, Rule: rule}
}

// LimitExceededError marks a level-2 approver who lacks authority for the
// document amount.
type LimitExceededError struct {
	Document string
	Rule     string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: approval limit exceeded: %s", e.Document, e.Rule)
}

func NewLimitExceededError(document, rule string) error {
	return &LimitExceededError{Document: document, Rule: rule}
}

// ConsistencyError marks recomputation against a document that no longer
// exists. Callers treat it as a no-op, not a fatal failure.
type ConsistencyError struct {
	Document string
	Rule     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: consistency: %s", e.Document, e.Rule)
}

func NewConsistencyError(document, rule string) error {
	return &ConsistencyError{Document: document, Rule: rule}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsPolicy(err error) bool {
	var e *PolicyError
	return errors.As(err, &e)
}

func IsAuthorization(err error) bool {
	var e *AuthorizationError
	return errors.As(err, &e)
}

func IsLimitExceeded(err error) bool {
	var e *LimitExceededError
	return errors.As(err, &e)
}

func IsConsistency(err error) bool {
	var e *ConsistencyError
	return errors.As(err, &e)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
