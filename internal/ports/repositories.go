package ports

import (
	"context"
	"time"

	"scorify/internal/domain"
)

// InteractionQuery selects campaign interactions created in [From, To).
// Empty OwnerID means every owner; empty Decision means every decision.
type InteractionQuery struct {
	From     time.Time
	To       time.Time
	OwnerID  string
	Decision string
}

// InteractionRepository reads campaign interactions for reporting.
type InteractionRepository interface {
	InteractionsInWindow(ctx context.Context, q InteractionQuery) ([]domain.Interaction, error)
}

// ScoreRepository provides the latest lead score per customer.
type ScoreRepository interface {
	LatestScores(ctx context.Context, customerIDs []string) ([]domain.LeadScore, error)
}

// UserRepository looks up application users.
type UserRepository interface {
	UserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	UserByID(ctx context.Context, id string) (domain.User, bool, error)
	UsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	// CreateUser inserts u; created is false when the email is taken.
	CreateUser(ctx context.Context, u domain.User) (created bool, err error)
}

// CustomerQuery filters the customer list. MinScore and MaxScore keep
// customers having any score in [MinScore, MaxScore); nil leaves a side open.
type CustomerQuery struct {
	Search   string
	MinScore *float64
	MaxScore *float64
	Offset   int
	Limit    int // 0 means no limit
}

// ScopeQuery counts customers for dashboard tiles. WithCampaign restricts to
// customers having at least one campaign, owned by OwnerID when set.
// MinScore keeps customers with any score at or above it.
type ScopeQuery struct {
	WithCampaign bool
	OwnerID      string
	MinScore     *float64
}

// CustomerRepository lists customers with their latest score and activity.
type CustomerRepository interface {
	ListCustomers(ctx context.Context, q CustomerQuery) ([]domain.CustomerRow, error)
	CountCustomers(ctx context.Context, q CustomerQuery) (int, error)
	CountScoped(ctx context.Context, q ScopeQuery) (int, error)
	CountUsersByRole(ctx context.Context, role domain.Role) (int, error)
	// CustomerDetail returns one customer with its interaction history;
	// found is false when id does not exist.
	CustomerDetail(ctx context.Context, id string) (detail domain.CustomerDetail, found bool, err error)
}
