package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/landsat-go/internal/database"
	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/spatial"
)

// SampleRepository persists the sample set in SQLite. It implements
// datastore.Persister.
type SampleRepository struct {
	db *sql.DB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Load returns every stored sample ordered by body, latitude and longitude
func (r *SampleRepository) Load(ctx context.Context) ([]datastore.Reading, error) {
	query := `SELECT body, latitude, longitude, elevation
		FROM samples
		ORDER BY body, latitude, longitude`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var readings []datastore.Reading
	for rows.Next() {
		var rd datastore.Reading
		if err := rows.Scan(&rd.Body, &rd.Latitude, &rd.Longitude, &rd.Elevation); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return readings, nil
}

// Save replaces the stored samples with the contents of snapshot in one
// transaction, so pruned samples disappear from storage as well
func (r *SampleRepository) Save(ctx context.Context, snapshot *datastore.Index) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM samples"); err != nil {
			return fmt.Errorf("failed to clear samples: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO samples (body, latitude, longitude, elevation) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		var insertErr error
		snapshot.Walk(func(body string, s spatial.Sample) bool {
			_, insertErr = stmt.ExecContext(ctx, body, s.Latitude(), s.Longitude(), s.Elevation())
			return insertErr == nil
		})
		if insertErr != nil {
			return fmt.Errorf("failed to insert sample: %w", insertErr)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO save_log (sample_count, body_count) VALUES (?, ?)",
			snapshot.CountAll(), len(snapshot.BodiesKnown()))
		if err != nil {
			return fmt.Errorf("failed to record save: %w", err)
		}
		return nil
	})
}

// SaveCount returns how many saves have been recorded
func (r *SampleRepository) SaveCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM save_log").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count saves: %w", err)
	}
	return n, nil
}
