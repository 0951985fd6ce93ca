package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorify/internal/domain"
	"scorify/internal/ports"
)

// openTestDB connects to SCORIFY_TEST_DATABASE_URL, migrates it and empties
// every table. The URL must point at a throwaway database.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("SCORIFY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SCORIFY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE interaction_logs, lead_scores, campaigns, customers, users CASCADE`)
	require.NoError(t, err)
	return db
}

func mustExec(t *testing.T, db *DB, sql string, args ...any) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	created, err := db.CreateUser(ctx, domain.User{ID: "s1", Name: "Budi", Email: "Budi@Scorify.id", Role: domain.RoleSales, PasswordHash: "x", CreatedAt: base})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = db.CreateUser(ctx, domain.User{ID: "s2", Name: "Other", Email: "budi@scorify.id", Role: domain.RoleSales, PasswordHash: "x", CreatedAt: base})
	require.NoError(t, err)
	assert.False(t, created)

	u, found, err := db.UserByEmail(ctx, "BUDI@scorify.id")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s1", u.ID)
	_, found, err = db.UserByID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	mustExec(t, db, `INSERT INTO customers (id, name, age, job) VALUES ('c1', 'Ani', 30, 'admin.'), ('c2', 'Bayu', 41, 'blue_collar')`)
	mustExec(t, db, `INSERT INTO campaigns (id, customer_id, user_id, month, final_decision, created_at) VALUES
        ('k1', 'c1', 's1', 'mar', 'agreed', $1),
        ('k2', 'c2', 's1', NULL, NULL, $2)`, base, base.Add(time.Hour))
	mustExec(t, db, `INSERT INTO lead_scores (customer_id, score, created_at) VALUES
        ('c1', 0.4, $1), ('c1', 0.9, $2), ('c2', 0.65, $1)`, base, base.Add(time.Minute))

	window := ports.InteractionQuery{From: base.Add(-time.Hour), To: base.Add(2 * time.Hour)}
	all, err := db.InteractionsInWindow(ctx, window)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	window.Decision = "pending"
	pending, err := db.InteractionsInWindow(ctx, window)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.DecisionPending, pending[0].Decision)
	assert.Nil(t, pending[0].MonthLabel)

	scores, err := db.LatestScores(ctx, []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.9, scores[0].Score)

	hi := 0.8
	rows, err := db.ListCustomers(ctx, ports.CustomerQuery{MinScore: &hi})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ani", rows[0].Name)
	require.NotNil(t, rows[0].Score)
	assert.Equal(t, 0.9, *rows[0].Score)

	mustExec(t, db, `INSERT INTO interaction_logs (id, customer_id, user_id, type, call_result, note, created_at) VALUES
        ('l1', 'c1', 's1', 'PANGGILAN_TELEPON', 'no_answer', NULL, $1),
        ('l2', 'c1', 's1', 'CATATAN_INTERNAL', 'unknown', 'follow up', $2)`, base, base.Add(time.Hour))

	detail, found, err := db.CustomerDetail(ctx, "c1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ani", detail.Name)
	require.NotNil(t, detail.CallResult)
	assert.Equal(t, "unknown", *detail.CallResult)
	require.Len(t, detail.History, 2)
	assert.Equal(t, "l2", detail.History[0].ID)
	assert.Equal(t, domain.LogInternalNote, detail.History[0].Kind)
	require.NotNil(t, detail.History[1].SalesName)
	assert.Equal(t, "Budi", *detail.History[1].SalesName)

	_, found, err = db.CustomerDetail(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := db.CountScoped(ctx, ports.ScopeQuery{WithCampaign: true, OwnerID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.CountUsersByRole(ctx, domain.RoleSales)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
