package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"scorify/internal/domain"
	"scorify/internal/ports"
)

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing each ? with the next placeholder.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func customerFilter(q ports.CustomerQuery) *where {
	w := &where{}
	if q.Search != "" {
		w.add(`c.name ILIKE ?`, "%"+likeEscaper.Replace(q.Search)+"%")
	}
	switch {
	case q.MinScore != nil && q.MaxScore != nil:
		w.add(`EXISTS (SELECT 1 FROM lead_scores s WHERE s.customer_id = c.id AND s.score >= ? AND s.score < ?)`, *q.MinScore, *q.MaxScore)
	case q.MinScore != nil:
		w.add(`EXISTS (SELECT 1 FROM lead_scores s WHERE s.customer_id = c.id AND s.score >= ?)`, *q.MinScore)
	case q.MaxScore != nil:
		w.add(`EXISTS (SELECT 1 FROM lead_scores s WHERE s.customer_id = c.id AND s.score < ?)`, *q.MaxScore)
	}
	return w
}

const customerRowsSQL = `
        SELECT c.id, c.name, c.age, c.job, c.loan, c.phone, c.address,
               ls.score, cp.final_decision, cp.poutcome, il.call_result
        FROM customers c
        LEFT JOIN LATERAL (
            SELECT score FROM lead_scores WHERE customer_id = c.id ORDER BY created_at DESC LIMIT 1
        ) ls ON true
        LEFT JOIN LATERAL (
            SELECT final_decision, poutcome FROM campaigns WHERE customer_id = c.id ORDER BY created_at DESC LIMIT 1
        ) cp ON true
        LEFT JOIN LATERAL (
            SELECT call_result FROM interaction_logs WHERE customer_id = c.id ORDER BY created_at DESC LIMIT 1
        ) il ON true`

func listCustomersSQL(q ports.CustomerQuery) (string, []any) {
	w := customerFilter(q)
	sql := customerRowsSQL + w.String() + `
        ORDER BY c.name ASC, c.id ASC`
	args := w.args
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return sql, args
}

// CustomerRepository
func (db *DB) ListCustomers(ctx context.Context, q ports.CustomerQuery) ([]domain.CustomerRow, error) {
	sql, args := listCustomersSQL(q)
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomerRow
	for rows.Next() {
		var r domain.CustomerRow
		if err := scanCustomerRow(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanCustomerRow(row pgx.Row, r *domain.CustomerRow) error {
	return row.Scan(&r.ID, &r.Name, &r.Age, &r.Job, &r.Loan, &r.Phone, &r.Address,
		&r.Score, &r.FinalDecision, &r.LastOutcome, &r.CallResult)
}

func (db *DB) CustomerDetail(ctx context.Context, id string) (domain.CustomerDetail, bool, error) {
	var d domain.CustomerDetail
	err := scanCustomerRow(db.Pool.QueryRow(ctx, customerRowsSQL+`
        WHERE c.id = $1`, id), &d.CustomerRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, false, nil
	}
	if err != nil {
		return d, false, err
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT l.id, l.customer_id, l.type, l.call_result, l.note, u.name, l.created_at
        FROM interaction_logs l
        LEFT JOIN users u ON u.id = l.user_id
        WHERE l.customer_id = $1
        ORDER BY l.created_at DESC, l.id DESC
    `, id)
	if err != nil {
		return d, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.InteractionLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.Kind, &l.CallResult, &l.Note, &l.SalesName, &l.CreatedAt); err != nil {
			return d, false, err
		}
		d.History = append(d.History, l)
	}
	if err := rows.Err(); err != nil {
		return d, false, err
	}
	return d, true, nil
}

func (db *DB) CountCustomers(ctx context.Context, q ports.CustomerQuery) (int, error) {
	w := customerFilter(q)
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM customers c`+w.String(), w.args...).Scan(&n)
	return n, err
}

func scopedFilter(q ports.ScopeQuery) *where {
	w := &where{}
	if q.WithCampaign {
		if q.OwnerID != "" {
			w.add(`EXISTS (SELECT 1 FROM campaigns cp WHERE cp.customer_id = c.id AND cp.user_id = ?)`, q.OwnerID)
		} else {
			w.add(`EXISTS (SELECT 1 FROM campaigns cp WHERE cp.customer_id = c.id)`)
		}
	}
	if q.MinScore != nil {
		w.add(`EXISTS (SELECT 1 FROM lead_scores s WHERE s.customer_id = c.id AND s.score >= ?)`, *q.MinScore)
	}
	return w
}

func (db *DB) CountScoped(ctx context.Context, q ports.ScopeQuery) (int, error) {
	w := scopedFilter(q)
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM customers c`+w.String(), w.args...).Scan(&n)
	return n, err
}
