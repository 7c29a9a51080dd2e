package basic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	core "ptvdata/data/db"
)

func newMemoryDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(core.DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDB_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)

	_, err := db.Exec(ctx, `CREATE TABLE language (id TEXT PRIMARY KEY, code TEXT NOT NULL, order_number INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO language (id, code, order_number) VALUES (?, ?, ?), (?, ?, ?)`, "a", "fi", 1, "b", "sv", 2)
	require.NoError(t, err)

	rows, err := db.Query(ctx, `SELECT code FROM language ORDER BY order_number`)
	require.NoError(t, err)
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		require.NoError(t, rows.Scan(&code))
		codes = append(codes, code)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"fi", "sv"}, codes)
	assert.Equal(t, "sqlite", db.GetDialectName())
}

func TestTx_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	db := newMemoryDB(t)
	_, err := db.Exec(ctx, `CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO t (v) VALUES (?)`, 1)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 0, n)

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO t (v) VALUES (?)`, 2)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 1, n)
}
