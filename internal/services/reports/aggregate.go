package reports

import (
	"sort"
	"strings"
	"time"

	"scorify/internal/domain"
)

// MonthLabels are the chart labels, January first.
var MonthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agus", "Sep", "Okt", "Nov", "Des",
}

// monthIndex accepts English and Indonesian names and abbreviations.
var monthIndex = map[string]int{
	"jan": 0, "january": 0, "januari": 0,
	"feb": 1, "february": 1, "februari": 1,
	"mar": 2, "march": 2, "maret": 2,
	"apr": 3, "april": 3,
	"may": 4, "mei": 4,
	"jun": 5, "june": 5, "juni": 5,
	"jul": 6, "july": 6, "juli": 6,
	"aug": 7, "agu": 7, "agus": 7, "august": 7, "agustus": 7,
	"sep": 8, "sept": 8, "september": 8,
	"oct": 9, "okt": 9, "october": 9, "oktober": 9,
	"nov": 10, "november": 10, "nop": 10, "nopember": 10,
	"dec": 11, "des": 11, "december": 11, "desember": 11,
}

// Score band thresholds.
const (
	HighScore   = 0.8
	MediumScore = 0.6
)

// Status narrows what the monthly view displays.
type Status string

const (
	StatusAll      Status = "all"
	StatusAgreed   Status = "agreed"
	StatusDeclined Status = "declined"
	StatusPending  Status = "pending"
)

// ParseStatus maps unknown input to StatusAll.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusAgreed, StatusDeclined, StatusPending:
		return st
	default:
		return StatusAll
	}
}

type MonthlyBucket struct {
	Month    string `json:"month"`
	Agreed   int    `json:"setuju"`
	Declined int    `json:"ditolak"`
	Pending  int    `json:"tertunda"`
}

// Total is the number of interactions counted into the bucket.
func (b MonthlyBucket) Total() int { return b.Agreed + b.Declined + b.Pending }

type ScoreDistribution struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

type Growth struct {
	Customers    float64 `json:"customers"`
	ApprovalRate float64 `json:"approvalRate"`
	Contacted    float64 `json:"contacted"`
}

type Summary struct {
	TotalCustomers     int               `json:"totalCustomers"`
	ApprovalRate       float64           `json:"approvalRate"`
	ContactedCustomers int               `json:"contactedCustomers"`
	ScoreDistribution  ScoreDistribution `json:"scoreDistribution"`
	Months             [12]string        `json:"months"`
	Growth             Growth            `json:"growth"`
}

// PeriodMetrics are the headline numbers for one window.
type PeriodMetrics struct {
	TotalCustomers int
	Agreed         int
	Declined       int
	ApprovalRate   float64
	Contacted      int
}

// MonthIndex resolves the bucket for an interaction: the month label when it
// names a month, otherwise the month of createdAt in loc.
func MonthIndex(label *string, createdAt time.Time, loc *time.Location) int {
	if label != nil {
		if idx, ok := monthIndex[strings.ToLower(strings.TrimSpace(*label))]; ok {
			return idx
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return int(createdAt.In(loc).Month()) - 1
}

// CountMonthly tallies decisions per month without any status masking.
func CountMonthly(records []domain.Interaction, loc *time.Location) [12]MonthlyBucket {
	var buckets [12]MonthlyBucket
	for i := range buckets {
		buckets[i].Month = MonthLabels[i]
	}
	for _, r := range records {
		b := &buckets[MonthIndex(r.MonthLabel, r.CreatedAt, loc)]
		switch r.Decision {
		case domain.DecisionAgreed:
			b.Agreed++
		case domain.DecisionDeclined:
			b.Declined++
		default:
			b.Pending++
		}
	}
	return buckets
}

// Mask zeroes the counters the status does not select.
func Mask(buckets [12]MonthlyBucket, status Status) [12]MonthlyBucket {
	for i := range buckets {
		b := &buckets[i]
		switch status {
		case StatusAgreed:
			b.Declined, b.Pending = 0, 0
		case StatusDeclined:
			b.Agreed, b.Pending = 0, 0
		case StatusPending:
			b.Agreed, b.Declined = 0, 0
		}
	}
	return buckets
}

// Monthly counts then masks.
func Monthly(records []domain.Interaction, status Status, loc *time.Location) [12]MonthlyBucket {
	return Mask(CountMonthly(records, loc), status)
}

// ScoreBand classifies a lead score as high, medium or low.
func ScoreBand(score float64) string {
	switch {
	case score >= HighScore:
		return "high"
	case score >= MediumScore:
		return "medium"
	default:
		return "low"
	}
}

// Metrics computes the headline numbers for records. A customer counts as
// contacted when their latest interaction in the window was agreed or
// declined.
func Metrics(records []domain.Interaction) PeriodMetrics {
	var m PeriodMetrics
	latest := make(map[string]domain.Interaction, len(records))
	for _, r := range records {
		switch r.Decision {
		case domain.DecisionAgreed:
			m.Agreed++
		case domain.DecisionDeclined:
			m.Declined++
		}
		prev, seen := latest[r.CustomerID]
		if !seen || newer(r, prev) {
			latest[r.CustomerID] = r
		}
	}
	m.TotalCustomers = len(latest)
	if decided := m.Agreed + m.Declined; decided > 0 {
		m.ApprovalRate = float64(m.Agreed) / float64(decided)
	}
	for _, r := range latest {
		if r.Decision.Decided() {
			m.Contacted++
		}
	}
	return m
}

func newer(a, b domain.Interaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Distribution bands the latest score of every customer appearing in
// records. Customers without a score are left out; with no scored customer
// every fraction is 0.
func Distribution(records []domain.Interaction, scores []domain.LeadScore) ScoreDistribution {
	inWindow := make(map[string]struct{}, len(records))
	for _, r := range records {
		inWindow[r.CustomerID] = struct{}{}
	}

	sorted := make([]domain.LeadScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(inWindow))
	var high, medium, low int
	for _, s := range sorted {
		if _, ok := inWindow[s.CustomerID]; !ok {
			continue
		}
		if _, ok := seen[s.CustomerID]; ok {
			continue
		}
		seen[s.CustomerID] = struct{}{}
		switch ScoreBand(s.Score) {
		case "high":
			high++
		case "medium":
			medium++
		default:
			low++
		}
	}

	denom := float64(max(1, high+medium+low))
	return ScoreDistribution{
		High:   float64(high) / denom,
		Medium: float64(medium) / denom,
		Low:    float64(low) / denom,
	}
}

// GrowthPercent is the percentage change from prev to curr, 0 when prev is 0.
func GrowthPercent(curr, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}

// Summarize builds the summary of the current window compared with the
// previous one.
func Summarize(current, previous []domain.Interaction, scores []domain.LeadScore) Summary {
	cur := Metrics(current)
	prev := Metrics(previous)
	return Summary{
		TotalCustomers:     cur.TotalCustomers,
		ApprovalRate:       cur.ApprovalRate,
		ContactedCustomers: cur.Contacted,
		ScoreDistribution:  Distribution(current, scores),
		Months:             MonthLabels,
		Growth: Growth{
			Customers:    GrowthPercent(float64(cur.TotalCustomers), float64(prev.TotalCustomers)),
			ApprovalRate: GrowthPercent(cur.ApprovalRate, prev.ApprovalRate),
			Contacted:    GrowthPercent(float64(cur.Contacted), float64(prev.Contacted)),
		},
	}
}
