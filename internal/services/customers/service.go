package customers

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scorify/internal/apperror"
	"scorify/internal/auth"
	"scorify/internal/domain"
	"scorify/internal/ports"
	"scorify/internal/services/reports"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Band filters accepted by the list and export endpoints.
const (
	BandAll    = "Semua"
	BandHigh   = "Tinggi"
	BandMedium = "Sedang"
	BandLow    = "Rendah"
)

var labels = map[string]string{
	"pending":     "Tertunda",
	"agreed":      "Disetujui",
	"declined":    "Ditolak",
	"success":     "Berhasil",
	"failure":     "Gagal",
	"no_answer":   "Tidak Dijawab",
	"unknown":     "Tidak Diketahui",
	"nonexistent": "Tidak Ada",
}

// Query is a list or export request. Page is 1-based.
type Query struct {
	Page   int
	Limit  int
	Search string
	Band   string
}

type Row struct {
	ID          string   `json:"id"`
	Name        string   `json:"nama"`
	Age         int      `json:"usia"`
	Job         string   `json:"pekerjaan"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Status      string   `json:"status"`
	Score       *float64 `json:"skor"`
	Interaction string   `json:"interaksi"`
}

type Pagination struct {
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type Page struct {
	Data       []Row      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type DashboardStats struct {
	HighPriorityCount int    `json:"highPriorityCount"`
	TotalCustomers    int    `json:"totalCustomers"`
	Scope             string `json:"scope"`
}

type AdminStats struct {
	TotalCustomers int `json:"totalCustomers"`
	TotalSales     int `json:"totalSales"`
	TotalHighScore int `json:"totalHighScore"`
}

// DetailInfo is the header of the customer detail view.
type DetailInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Age           int      `json:"age"`
	Job           string   `json:"job"`
	Phone         *string  `json:"phone"`
	Address       *string  `json:"address"`
	Score         *float64 `json:"skorPeluang"`
	ContactStatus string   `json:"statusKontak"`
	OfferStatus   string   `json:"statusPenawaran"`
}

// HistoryEntry is one rendered call or note. Result is empty for notes.
type HistoryEntry struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Date   time.Time `json:"date"`
	Note   *string   `json:"note"`
	Result string    `json:"result"`
}

type Detail struct {
	Details DetailInfo     `json:"details"`
	History []HistoryEntry `json:"history"`
}

var ErrCustomerNotFound = apperror.New(apperror.KindNotFound, "customers.detail", "Customer not found", nil)

type Service struct {
	repo ports.CustomerRepository
}

func New(repo ports.CustomerRepository) *Service { return &Service{repo: repo} }

// List returns one page of customers ordered by name.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	q = normalize(q)
	rq := repoQuery(q)
	rq.Offset = (q.Page - 1) * q.Limit
	rq.Limit = q.Limit

	var rows []domain.CustomerRow
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.repo.ListCustomers(gctx, rq)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountCustomers(gctx, rq)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, apperror.Internal("customers.list", err)
	}

	out := Page{
		Data: make([]Row, 0, len(rows)),
		Pagination: Pagination{
			TotalItems:   total,
			TotalPages:   (total + q.Limit - 1) / q.Limit,
			CurrentPage:  q.Page,
			ItemsPerPage: q.Limit,
		},
	}
	for _, r := range rows {
		out.Data = append(out.Data, Row{
			ID:          r.ID,
			Name:        r.Name,
			Age:         r.Age,
			Job:         TitleEnum(r.Job),
			Phone:       orDash(r.Phone),
			Address:     orDash(r.Address),
			Status:      Translate(orDefault(r.FinalDecision, "pending")),
			Score:       r.Score,
			Interaction: Translate(orDefault(r.CallResult, "unknown")),
		})
	}
	return out, nil
}

// CustomerDetail returns one customer with its calls and notes, newest
// first.
func (s *Service) CustomerDetail(ctx context.Context, id string) (Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Detail{}, apperror.New(apperror.KindInvalid, "customers.detail", "Customer ID is required", nil)
	}
	d, found, err := s.repo.CustomerDetail(ctx, id)
	if err != nil {
		return Detail{}, apperror.Internal("customers.detail", err)
	}
	if !found {
		return Detail{}, ErrCustomerNotFound
	}

	out := Detail{
		Details: DetailInfo{
			ID:            d.ID,
			Name:          d.Name,
			Age:           d.Age,
			Job:           d.Job,
			Phone:         d.Phone,
			Address:       d.Address,
			Score:         d.Score,
			ContactStatus: orDefault(d.CallResult, "unknown"),
			OfferStatus:   orDefault(d.FinalDecision, "pending"),
		},
		History: make([]HistoryEntry, 0, len(d.History)),
	}
	for _, l := range d.History {
		out.History = append(out.History, historyEntry(l))
	}
	return out, nil
}

func historyEntry(l domain.InteractionLog) HistoryEntry {
	e := HistoryEntry{ID: l.ID, Date: l.CreatedAt, Note: l.Note}
	if l.Kind == domain.LogInternalNote {
		e.Type = "Catatan Internal"
		return e
	}
	e.Type = "Panggilan Telepon"
	e.Result = "Sales: " + orDefault(l.SalesName, "System") + ". Hasil: " + Translate(l.CallResult)
	return e
}

var csvHeader = []string{"Nama", "Usia", "Pekerjaan", "Status Pinjaman", "Skor", "Status Interaksi"}

// ExportCSV writes every customer matching q, ignoring paging.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, q Query) error {
	rq := repoQuery(normalize(q))
	rows, err := s.repo.ListCustomers(ctx, rq)
	if err != nil {
		return apperror.Internal("customers.export", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		score := ""
		if r.Score != nil {
			score = strconv.FormatFloat(*r.Score, 'f', -1, 64)
		}
		rec := []string{
			r.Name,
			strconv.Itoa(r.Age),
			r.Job,
			r.Loan,
			score,
			orDefault(r.LastOutcome, "nonexistent"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DashboardStats counts the customers the caller works with: every
// contacted customer for admins, the caller's own for sales.
func (s *Service) DashboardStats(ctx context.Context, id auth.Identity) (DashboardStats, error) {
	owner := auth.ScopeOwner(id, "")
	high := reports.HighScore

	var out DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.HighPriorityCount, err = s.repo.CountScoped(gctx, ports.ScopeQuery{WithCampaign: true, OwnerID: owner, MinScore: &high})
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalCustomers, err = s.repo.CountScoped(gctx, ports.ScopeQuery{WithCampaign: true, OwnerID: owner})
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, apperror.Internal("customers.dashboard_stats", err)
	}
	out.Scope = "all-customers"
	if owner != "" {
		out.Scope = "sales-" + owner
	}
	return out, nil
}

func (s *Service) AdminStats(ctx context.Context) (AdminStats, error) {
	high := reports.HighScore

	var out AdminStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalCustomers, err = s.repo.CountCustomers(gctx, ports.CustomerQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalSales, err = s.repo.CountUsersByRole(gctx, domain.RoleSales)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalHighScore, err = s.repo.CountScoped(gctx, ports.ScopeQuery{MinScore: &high})
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminStats{}, apperror.Internal("customers.admin_stats", err)
	}
	return out, nil
}

// Translate renders a stored enum value in Indonesian, passing unknown
// values through.
func Translate(v string) string {
	if v == "" {
		return "-"
	}
	if l, ok := labels[strings.ToLower(v)]; ok {
		return l
	}
	return v
}

// TitleEnum turns snake_case enum values into title-cased words.
func TitleEnum(v string) string {
	if v == "" {
		return "-"
	}
	words := strings.Split(v, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func normalize(q Query) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func repoQuery(q Query) ports.CustomerQuery {
	rq := ports.CustomerQuery{Search: q.Search}
	high, medium := reports.HighScore, reports.MediumScore
	switch q.Band {
	case BandHigh:
		rq.MinScore = &high
	case BandMedium:
		rq.MinScore, rq.MaxScore = &medium, &high
	case BandLow:
		rq.MaxScore = &medium
	}
	return rq
}

func orDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}

func orDefault(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
