package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (household_id, name, color, is_income, is_savings, is_fixed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Household, c.Name, c.Color, c.IsIncome, c.IsSavings, c.IsFixed)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.ErrNameTaken
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, household string, id int64) (core.Category, error) {
	var c core.Category
	err := q.db.QueryRowContext(ctx, `
		SELECT id, household_id, name, color, is_income, is_savings, is_fixed
		FROM categories WHERE household_id = ? AND id = ?`,
		household, id).Scan(&c.ID, &c.Household, &c.Name, &c.Color, &c.IsIncome, &c.IsSavings, &c.IsFixed)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (q *Queries) GetCategoryByName(ctx context.Context, household, name string) (core.Category, error) {
	var c core.Category
	err := q.db.QueryRowContext(ctx, `
		SELECT id, household_id, name, color, is_income, is_savings, is_fixed
		FROM categories WHERE household_id = ? AND name = ?`,
		household, name).Scan(&c.ID, &c.Household, &c.Name, &c.Color, &c.IsIncome, &c.IsSavings, &c.IsFixed)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context, household string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, household_id, name, color, is_income, is_savings, is_fixed
		FROM categories WHERE household_id = ? ORDER BY name`,
		household)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Household, &c.Name, &c.Color, &c.IsIncome, &c.IsSavings, &c.IsFixed); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, is_income = ?, is_savings = ?, is_fixed = ?
		WHERE household_id = ? AND id = ?`,
		c.Name, c.Color, c.IsIncome, c.IsSavings, c.IsFixed, c.Household, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrNameTaken
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, core.ErrCategoryNotFound)
}

// DeleteCategory removes a category with no remaining budget lines.
func (q *Queries) DeleteCategory(ctx context.Context, household string, id int64) error {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_lines WHERE household_id = ? AND category_id = ?`,
		household, id).Scan(&n)
	if err != nil {
		return fmt.Errorf("count category lines: %w", err)
	}
	if n > 0 {
		return core.ErrCategoryNotEmpty
	}

	res, err := q.db.ExecContext(ctx,
		`DELETE FROM categories WHERE household_id = ? AND id = ?`, household, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, core.ErrCategoryNotFound)
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

// isUniqueViolation matches the sqlite UNIQUE constraint error. modernc's
// driver surfaces it in the message, there is no portable error code type
// shared with database/sql.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
