package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"scorify/internal/domain"
	"scorify/internal/ports"
)

// InteractionRepository
func (db *DB) InteractionsInWindow(ctx context.Context, q ports.InteractionQuery) ([]domain.Interaction, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, customer_id, user_id, created_at, month, final_decision
        FROM campaigns
        WHERE created_at >= $1 AND created_at < $2
          AND ($3::text = '' OR user_id = $3)
          AND ($4::text = '' OR COALESCE(final_decision, 'pending') = $4)
    `, q.From, q.To, q.OwnerID, q.Decision)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var (
			it       domain.Interaction
			decision *string
		)
		if err := rows.Scan(&it.ID, &it.CustomerID, &it.OwnerID, &it.CreatedAt, &it.MonthLabel, &decision); err != nil {
			return nil, err
		}
		if decision != nil {
			it.Decision = domain.ParseDecision(*decision)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ScoreRepository
func (db *DB) LatestScores(ctx context.Context, customerIDs []string) ([]domain.LeadScore, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Pool.Query(ctx, `
        SELECT DISTINCT ON (customer_id) customer_id, score, created_at
        FROM lead_scores
        WHERE customer_id = ANY($1)
        ORDER BY customer_id, created_at DESC
    `, customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeadScore
	for rows.Next() {
		var s domain.LeadScore
		if err := rows.Scan(&s.CustomerID, &s.Score, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UserRepository
func (db *DB) UserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return db.userWhere(ctx, `email = $1`, strings.ToLower(email))
}

func (db *DB) UserByID(ctx context.Context, id string) (domain.User, bool, error) {
	return db.userWhere(ctx, `id = $1`, id)
}

func (db *DB) userWhere(ctx context.Context, cond string, arg any) (domain.User, bool, error) {
	var u domain.User
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, email, phone, role, password_hash, created_at
        FROM users WHERE `+cond, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	return u, true, nil
}

func (db *DB) UsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, name, email, phone, role, created_at
        FROM users WHERE role = $1
        ORDER BY name ASC
    `, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (db *DB) CreateUser(ctx context.Context, u domain.User) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
        INSERT INTO users (id, name, email, phone, password_hash, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (email) DO NOTHING
    `, u.ID, u.Name, strings.ToLower(u.Email), u.Phone, u.PasswordHash, string(u.Role), u.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (db *DB) CountUsersByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}
