package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/geospatial"
)

// MapItemRepo implements ports.MapItemRepository with pgx.
type MapItemRepo struct {
	db *DB
}

// NewMapItemRepo creates a new MapItemRepo.
func NewMapItemRepo(db *DB) *MapItemRepo {
	return &MapItemRepo{db: db}
}

// Insert stores a single item. A primary key conflict maps to domain.ErrDuplicateID.
func (r *MapItemRepo) Insert(ctx context.Context, item *domain.MapItem) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO map_items (id, label, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Label, item.Coordinate.Lat, item.Coordinate.Lon, item.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("map item %s: %w", item.ID, domain.ErrDuplicateID)
	}
	return err
}

// InsertBatch stores many items using pgx.Batch.
func (r *MapItemRepo) InsertBatch(ctx context.Context, items []domain.MapItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO map_items (id, label, lat, lon, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, it.ID, it.Label, it.Coordinate.Lat, it.Coordinate.Lon, it.CreatedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// List returns every item in insertion order.
func (r *MapItemRepo) List(ctx context.Context) ([]domain.MapItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, label, lat, lon, created_at
		FROM map_items
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// FindWithin returns items strictly inside the viewport, in insertion order.
// The bounding box narrows the scan and the haversine check is exact.
func (r *MapItemRepo) FindWithin(ctx context.Context, vp domain.Viewport) ([]domain.MapItem, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(vp.Center.Lat, vp.Center.Lon, vp.Radius)

	query := `
		SELECT id, label, lat, lon, created_at
		FROM map_items
		WHERE lat BETWEEN $1 AND $2`
	args := []any{minLat, maxLat}
	switch {
	case minLon < -180:
		query += ` AND (lon >= $3 OR lon <= $4)`
		args = append(args, minLon+360, maxLon)
	case maxLon > 180:
		query += ` AND (lon >= $3 OR lon <= $4)`
		args = append(args, minLon, maxLon-360)
	default:
		query += ` AND lon BETWEEN $3 AND $4`
		args = append(args, minLon, maxLon)
	}
	query += ` ORDER BY seq`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	candidates, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	out := candidates[:0]
	for _, it := range candidates {
		if geospatial.Haversine(vp.Center.Lat, vp.Center.Lon, it.Coordinate.Lat, it.Coordinate.Lon) < vp.Radius {
			out = append(out, it)
		}
	}
	return out, nil
}

// DeleteAll removes every item.
func (r *MapItemRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM map_items`)
	return err
}

func scanItems(rows pgx.Rows) ([]domain.MapItem, error) {
	defer rows.Close()
	var items []domain.MapItem
	for rows.Next() {
		var it domain.MapItem
		if err := rows.Scan(&it.ID, &it.Label, &it.Coordinate.Lat, &it.Coordinate.Lon, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
