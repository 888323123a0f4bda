package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

// withTx runs fn inside a transaction, rolling back on error or panic
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.WithError(rbErr).Warn("postgres: rollback failed")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// writeErr maps unique violations to repository.ErrDuplicate
func writeErr(err error, op string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// getErr maps sql.ErrNoRows to repository.ErrNotFound
func getErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s not found: %w", entity, repository.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

func checkAffected(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found: %w", entity, repository.ErrNotFound)
	}
	return nil
}

func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}

func namedInsert(table string, cols []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table, columnList(cols), strings.Join(cols, ", :"))
}

// namedUpdate sets every column except id and created_at
func namedUpdate(table string, cols []string) string {
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" || c == "created_at" {
			continue
		}
		sets = append(sets, c+" = :"+c)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", "))
}

// conditions accumulates WHERE clauses with positional arguments
type conditions struct {
	clauses []string
	args    []any
}

// arg registers v and returns its placeholder
func (c *conditions) arg(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *conditions) where(clause string) {
	c.clauses = append(c.clauses, clause)
}

// search adds a case-insensitive match of term against any of cols
func (c *conditions) search(term string, cols ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	p := c.arg("%" + term + "%")
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " ILIKE " + p
	}
	c.where("(" + strings.Join(parts, " OR ") + ")")
}

func (c *conditions) sql() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// selectPage counts the filtered rows, then loads one page ordered by orderBy
func selectPage[T any](ctx context.Context, db *sqlx.DB, table string, cols []string, w *conditions, orderBy string, limit, offset int) ([]*T, int, error) {
	var total int
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+table+w.sql(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", columnList(cols), table, w.sql(), orderBy)
	args := w.args
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	items := []*T{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return items, total, nil
}
