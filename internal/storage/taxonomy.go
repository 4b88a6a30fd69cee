package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureCategory resolves a category id by canonical name, creating the
// row on first reference.
func (q *Queries) EnsureCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get category %q: %w", name, err)
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

// EnsureSubcategory resolves a subcategory id inside a category,
// creating the row on first reference.
func (q *Queries) EnsureSubcategory(ctx context.Context, categoryID int64, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM subcategories WHERE category_id = ? AND name = ?`, categoryID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get subcategory %q: %w", name, err)
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO subcategories (category_id, name) VALUES (?, ?)`, categoryID, name)
	if err != nil {
		return 0, fmt.Errorf("create subcategory %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("subcategory insert id: %w", err)
	}
	return id, nil
}

// CategoryName resolves a category id back to its canonical name.
func (q *Queries) CategoryName(ctx context.Context, id int64) (string, error) {
	var name string
	err := q.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get category %d: %w", id, err)
	}
	return name, nil
}

// SubcategoryName resolves a subcategory id back to its canonical name.
func (q *Queries) SubcategoryName(ctx context.Context, id int64) (string, error) {
	var name string
	err := q.db.QueryRowContext(ctx, `SELECT name FROM subcategories WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get subcategory %d: %w", id, err)
	}
	return name, nil
}

// ListCategories returns all canonical category names.
func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ListSubcategories returns the subcategory names of one category.
func (q *Queries) ListSubcategories(ctx context.Context, categoryName string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT s.name FROM subcategories s JOIN categories c ON c.id = s.category_id
		 WHERE c.name = ? ORDER BY s.name`, categoryName)
	if err != nil {
		return nil, fmt.Errorf("list subcategories of %q: %w", categoryName, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
