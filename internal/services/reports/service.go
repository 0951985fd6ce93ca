package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"scorify/internal/apperror"
	"scorify/internal/domain"
	"scorify/internal/metrics"
	"scorify/internal/ports"
)

// Filter is the request scope for both reports. Year 0 means the current
// year; empty OwnerID means every sales user.
type Filter struct {
	Year    int
	OwnerID string
	Status  Status
}

type Service struct {
	interactions ports.InteractionRepository
	scores       ports.ScoreRepository
	loc          *time.Location
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(interactions ports.InteractionRepository, scores ports.ScoreRepository, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{interactions: interactions, scores: scores, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Monthly returns the twelve month buckets of f.Year. The status only masks
// the returned counters; every interaction of the year is counted.
func (s *Service) Monthly(ctx context.Context, f Filter) (buckets [12]MonthlyBucket, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(metrics.ReportMonthly, time.Since(start), err) }()

	year := f.Year
	if year <= 0 {
		year = s.now().In(s.loc).Year()
	}
	records, err := s.interactions.InteractionsInWindow(ctx, ports.InteractionQuery{
		From:    time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc),
		To:      time.Date(year+1, time.January, 1, 0, 0, 0, 0, s.loc),
		OwnerID: f.OwnerID,
	})
	if err != nil {
		return buckets, apperror.Internal("report_monthly", err)
	}
	return Monthly(records, f.Status, s.loc), nil
}

// Summary compares the current calendar month with the previous one. Owner
// and status both narrow the fetched interactions.
func (s *Service) Summary(ctx context.Context, f Filter) (sum Summary, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(metrics.ReportSummary, time.Since(start), err) }()

	now := s.now().In(s.loc)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	nextMonth := thisMonth.AddDate(0, 1, 0)
	prevMonth := thisMonth.AddDate(0, -1, 0)

	decision := ""
	if f.Status != StatusAll && f.Status != "" {
		decision = string(f.Status)
	}

	var current, previous []domain.Interaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.interactions.InteractionsInWindow(gctx, ports.InteractionQuery{
			From: thisMonth, To: nextMonth, OwnerID: f.OwnerID, Decision: decision,
		})
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.interactions.InteractionsInWindow(gctx, ports.InteractionQuery{
			From: prevMonth, To: thisMonth, OwnerID: f.OwnerID, Decision: decision,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return sum, apperror.Internal("report_summary", err)
	}

	var scores []domain.LeadScore
	if ids := customerIDs(current); len(ids) > 0 {
		scores, err = s.scores.LatestScores(ctx, ids)
		if err != nil {
			return sum, apperror.Internal("report_summary", err)
		}
	}
	return Summarize(current, previous, scores), nil
}

// customerIDs returns the distinct customers of records in first-seen order.
func customerIDs(records []domain.Interaction) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.CustomerID]; ok {
			continue
		}
		seen[r.CustomerID] = struct{}{}
		out = append(out, r.CustomerID)
	}
	return out
}
