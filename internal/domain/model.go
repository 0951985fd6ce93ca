package domain

import (
	"strings"
	"time"
)

// Core domain models used internally. JSON response shapes live with the
// services that produce them.

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleSales Role = "Sales"
)

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

type Customer struct {
	ID      string
	Name    string
	Age     int
	Job     string
	Loan    string
	Phone   *string
	Address *string
}

// Decision is the final disposition of an offer. Anything that is not
// explicitly agreed or declined is pending.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionAgreed
	DecisionDeclined
)

// ParseDecision normalises a stored final_decision value.
func ParseDecision(s string) Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agreed":
		return DecisionAgreed
	case "declined":
		return DecisionDeclined
	default:
		return DecisionPending
	}
}

func (d Decision) String() string {
	switch d {
	case DecisionAgreed:
		return "agreed"
	case DecisionDeclined:
		return "declined"
	default:
		return "pending"
	}
}

// Decided reports whether the customer gave an answer.
func (d Decision) Decided() bool { return d == DecisionAgreed || d == DecisionDeclined }

// Interaction is one campaign contact between a sales user and a customer.
// MonthLabel is the free-text month the campaign was logged under and may
// disagree with CreatedAt.
type Interaction struct {
	ID         string
	CustomerID string
	OwnerID    string
	CreatedAt  time.Time
	MonthLabel *string
	Decision   Decision
}

// LeadScore is a model output for a customer, in [0,1].
type LeadScore struct {
	CustomerID string
	Score      float64
	CreatedAt  time.Time
}

// CustomerRow is a customer joined with its latest score, decision and call
// result, as listed and exported.
type CustomerRow struct {
	Customer
	Score         *float64
	FinalDecision *string
	CallResult    *string
	LastOutcome   *string
}

// LogKind tells a logged phone call from an internal note.
type LogKind string

const (
	LogPhoneCall    LogKind = "PANGGILAN_TELEPON"
	LogInternalNote LogKind = "CATATAN_INTERNAL"
)

// InteractionLog is one call or note on a customer. SalesName is nil when
// the author no longer resolves.
type InteractionLog struct {
	ID         string
	CustomerID string
	Kind       LogKind
	CallResult string
	Note       *string
	SalesName  *string
	CreatedAt  time.Time
}

// CustomerDetail is a customer row with its interaction history, newest
// first.
type CustomerDetail struct {
	CustomerRow
	History []InteractionLog
}
