package storage

import (
	"context"
	"database/sql"
	"errors"

	"expenso/internal/core"
)

// ErrCategoryNotFound is returned by GetCategory for an unknown id.
var ErrCategoryNotFound = errors.New("category not found")

// ListCategories returns every category ordered by name, for dropdowns.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, category_name FROM categories ORDER BY category_name ASC, category_id ASC`)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list categories", err)
	}
	return out, nil
}

// GetCategory looks up a single category by id.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT category_id, category_name FROM categories WHERE category_id = ?`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, storageErr("get category", err)
	}
	return c, nil
}
