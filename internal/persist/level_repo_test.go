package persist

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jamgo/jam/internal/config"
)

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("name: demo\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Checksum([]byte("name: demo\n")))
	assert.NotEqual(t, a, Checksum([]byte("name: demo2\n")))
}

// openTestDB connects to $JAM_TEST_DSN, skipping the test when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("JAM_TEST_DSN")
	if dsn == "" {
		t.Skip("JAM_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	version, err := RunMigrations(ctx, db)
	require.NoError(t, err)
	require.Equal(t, int64(2), version)
	return db
}

func TestLevelRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewLevelRepo(db)
	ctx := context.Background()

	name := "test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = repo.Delete(context.Background(), name) })

	row := &LevelRow{
		Name:     name,
		Document: []byte("grid: {width: 4, height: 4}\n"),
		Entities: 3,
		TileMaps: map[string][]byte{"walls.csv": []byte("1,1\n1,0\n")},
	}
	require.NoError(t, repo.Save(ctx, row))

	got, err := repo.Load(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, row.Document, got.Document)
	assert.Equal(t, row.Checksum, got.Checksum)
	assert.Equal(t, 3, got.Entities)
	assert.Equal(t, row.TileMaps, got.TileMaps)

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, name)

	_, err = db.Pool.Exec(ctx, `UPDATE levels SET document = 'tampered' WHERE name = $1`, name)
	require.NoError(t, err)
	_, err = repo.Load(ctx, name)
	assert.ErrorIs(t, err, ErrChecksum)

	missing, err := repo.Load(ctx, name+"-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	version, err := RunMigrations(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestWithTxRollsBack(t *testing.T) {
	db := openTestDB(t)
	repo := NewLevelRepo(db)
	ctx := context.Background()
	name := "rollback-" + time.Now().Format("150405.000000")

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO levels (name, document, checksum, entities) VALUES ($1, $2, $3, 0)`,
			name, []byte("{}"), Checksum([]byte("{}"))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Load(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, got)
}
