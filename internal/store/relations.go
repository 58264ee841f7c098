package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
)

// ErrRelationNotFound is returned when a predicate has no relation table.
var ErrRelationNotFound = errors.New("relation not found")

// ErrArityConflict is returned when a relation is created or filled with an
// arity different from the catalog's.
var ErrArityConflict = errors.New("arity conflict")

// RelationInfo describes one catalog entry.
type RelationInfo struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

// TableName returns the quoted SQL identifier of a predicate's table.
// Any predicate name is allowed; quotes inside it are doubled.
func TableName(predicate string) string {
	return QuoteIdent("rel_" + predicate)
}

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Column returns the name of column i of a relation table.
func Column(i int) string {
	return fmt.Sprintf("c%d", i)
}

// CreateRelation creates the table for predicate with the given arity and
// records it in the catalog. Creating an existing relation with the same
// arity is a no-op; a different arity returns ErrArityConflict.
func (s *Store) CreateRelation(ctx context.Context, predicate string, arity int) error {
	existing, err := s.arity(ctx, predicate)
	switch {
	case err == nil && existing == arity:
		return nil
	case err == nil:
		return fmt.Errorf("create relation %q with arity %d (catalog has %d): %w", predicate, arity, existing, ErrArityConflict)
	case !errors.Is(err, ErrRelationNotFound):
		return fmt.Errorf("create relation %q: %w", predicate, err)
	}

	cols := []string{"_seq INTEGER PRIMARY KEY"}
	for i := 0; i < arity; i++ {
		cols = append(cols, Column(i)+" TEXT NOT NULL")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create relation %q: %w", predicate, err)
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", TableName(predicate), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create relation %q: %w", predicate, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO relations (name, arity, tbl) VALUES (?, ?, ?)`,
		predicate, arity, "rel_"+predicate,
	); err != nil {
		return fmt.Errorf("create relation %q: %w", predicate, err)
	}
	return tx.Commit()
}

// Arity returns the catalog arity of predicate, or ErrRelationNotFound.
func (s *Store) Arity(ctx context.Context, predicate string) (int, error) {
	return s.arity(ctx, predicate)
}

func (s *Store) arity(ctx context.Context, predicate string) (int, error) {
	var arity int
	err := s.db.QueryRowContext(ctx, `SELECT arity FROM relations WHERE name = ?`, predicate).Scan(&arity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%q: %w", predicate, ErrRelationNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}
	return arity, nil
}

// Insert appends rows to predicate's relation in one transaction. Every row
// must have the relation's arity.
func (s *Store) Insert(ctx context.Context, predicate string, rows ir.Relation) error {
	arity, err := s.arity(ctx, predicate)
	if err != nil {
		return fmt.Errorf("insert into %q: %w", predicate, err)
	}

	cols := make([]string, arity)
	marks := make([]string, arity)
	for i := range cols {
		cols[i] = Column(i)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", TableName(predicate))
	if arity > 0 {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			TableName(predicate), strings.Join(cols, ", "), strings.Join(marks, ", "))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %q: %w", predicate, err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("insert into %q: %w", predicate, err)
	}
	defer prepared.Close()

	for i, row := range rows {
		if len(row) != arity {
			return fmt.Errorf("insert into %q: row %d has %d values, want %d: %w", predicate, i, len(row), arity, ErrArityConflict)
		}
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %q: %w", predicate, err)
		}
	}
	return tx.Commit()
}

// Rows returns every row of predicate's relation in insertion order.
// Returns an empty relation (not nil) if the table is empty.
func (s *Store) Rows(ctx context.Context, predicate string) (ir.Relation, error) {
	arity, err := s.arity(ctx, predicate)
	if err != nil {
		return nil, err
	}

	sel := "NULL"
	if arity > 0 {
		cols := make([]string, arity)
		for i := range cols {
			cols[i] = Column(i)
		}
		sel = strings.Join(cols, ", ")
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY _seq", sel, TableName(predicate)))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", predicate, err)
	}
	defer rows.Close()

	return ScanRelation(rows, arity)
}

// ScanRelation reads rows of arity text columns. A nullary result is
// expected to select a single placeholder column.
func ScanRelation(rows *sql.Rows, arity int) (ir.Relation, error) {
	out := ir.Relation{}
	for rows.Next() {
		if arity == 0 {
			var placeholder sql.RawBytes
			if err := rows.Scan(&placeholder); err != nil {
				return nil, fmt.Errorf("scan row: %w", err)
			}
			out = append(out, ir.Row{})
			continue
		}
		values := make([]string, arity)
		ptrs := make([]any, arity)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, ir.Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Relations lists the catalog ordered by predicate name.
func (s *Store) Relations(ctx context.Context) ([]RelationInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, arity FROM relations ORDER BY name COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	infos := []RelationInfo{}
	for rows.Next() {
		var info RelationInfo
		if err := rows.Scan(&info.Name, &info.Arity); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return infos, nil
}

// DropRelations drops every relation table and empties the catalog.
func (s *Store) DropRelations(ctx context.Context) error {
	infos, err := s.Relations(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("drop relations: %w", err)
	}
	defer tx.Rollback()

	for _, info := range infos {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+TableName(info.Name)); err != nil {
			return fmt.Errorf("drop relation %q: %w", info.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM relations`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return tx.Commit()
}
