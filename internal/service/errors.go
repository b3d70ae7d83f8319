package service

import "fmt"

// Domain error taxonomy. Handlers map these onto HTTP statuses via
// middleware; services and tests match them with errors.As.

// InvalidStateError means the operation is forbidden in the entity's current
// lifecycle state (e.g. adding a line to a completed transaction).
type InvalidStateError struct {
	Entity string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", e.Entity, e.Op, e.State)
}

// ValidationError means the input is malformed or out of range.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError means the resource is already in the requested state, e.g.
// opening a session on a terminal that already has an active one.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// InsufficientFundsError guards drawer pay-outs.
type InsufficientFundsError struct {
	Msg string
}

func (e *InsufficientFundsError) Error() string { return e.Msg }

// InsufficientStockError is raised when the inventory collaborator cannot
// cover a deduction and the terminal forbids negative stock.
type InsufficientStockError struct {
	Product string
	Msg     string
}

func (e *InsufficientStockError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

// CouponError wraps a promotion-collaborator rejection with its reason.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

// LoyaltyError wraps a loyalty-collaborator failure during redemption.
type LoyaltyError struct {
	Reason string
	Err    error
}

func (e *LoyaltyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loyalty: %s: %v", e.Reason, e.Err)
	}
	return "loyalty: " + e.Reason
}

func (e *LoyaltyError) Unwrap() error { return e.Err }

// NotFoundError reports a missing entity by kind.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }
