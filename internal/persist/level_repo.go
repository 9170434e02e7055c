package persist

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// ErrChecksum is returned when a stored level document does not match its
// recorded checksum.
var ErrChecksum = errors.New("persist: level checksum mismatch")

type LevelRow struct {
	Name      string
	Document  []byte
	Checksum  string
	Entities  int
	TileMaps  map[string][]byte // file name -> CSV content
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LevelRepo struct {
	db *DB
}

func NewLevelRepo(db *DB) *LevelRepo {
	return &LevelRepo{db: db}
}

// Checksum returns the hex BLAKE2b-256 digest of a level document.
func Checksum(doc []byte) string {
	sum := blake2b.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Save inserts or replaces a level and its tile maps in one transaction.
func (r *LevelRepo) Save(ctx context.Context, row *LevelRow) error {
	row.Checksum = Checksum(row.Document)

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO levels (name, document, checksum, entities)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name) DO UPDATE
			 SET document = EXCLUDED.document, checksum = EXCLUDED.checksum,
			     entities = EXCLUDED.entities, updated_at = now()`,
			row.Name, row.Document, row.Checksum, row.Entities,
		)
		if err != nil {
			return fmt.Errorf("save level %s: %w", row.Name, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM level_tile_maps WHERE level_name = $1`, row.Name); err != nil {
			return fmt.Errorf("clear tile maps %s: %w", row.Name, err)
		}
		batch := &pgx.Batch{}
		for file, content := range row.TileMaps {
			batch.Queue(`INSERT INTO level_tile_maps (level_name, file, content) VALUES ($1, $2, $3)`,
				row.Name, file, content)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("save tile maps %s: %w", row.Name, err)
			}
		}
		return nil
	})
}

// Load returns the level with the given name, or nil if there is none.
func (r *LevelRepo) Load(ctx context.Context, name string) (*LevelRow, error) {
	row := &LevelRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, document, checksum, entities, created_at, updated_at
		 FROM levels WHERE name = $1`, name,
	).Scan(&row.Name, &row.Document, &row.Checksum, &row.Entities, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if Checksum(row.Document) != row.Checksum {
		return nil, fmt.Errorf("level %s: %w", name, ErrChecksum)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT file, content FROM level_tile_maps WHERE level_name = $1`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	row.TileMaps = make(map[string][]byte)
	for rows.Next() {
		var file string
		var content []byte
		if err := rows.Scan(&file, &content); err != nil {
			return nil, err
		}
		row.TileMaps[file] = content
	}
	return row, rows.Err()
}

// List returns the names of all stored levels, sorted.
func (r *LevelRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM levels ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Delete removes a level and its tile maps.
func (r *LevelRepo) Delete(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM levels WHERE name = $1`, name)
	return err
}
