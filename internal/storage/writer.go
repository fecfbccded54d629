package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/cratescope/internal/model"
)

// RunStats describes the extraction run a snapshot came from.
type RunStats struct {
	Files   int
	Skipped int
}

// Writer persists crate models as snapshots.
type Writer struct {
	db  *sql.DB
	now func() time.Time
}

// NewWriter creates a Writer. DB must have schema already created.
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db, now: time.Now}
}

// itemRow is one record flattened for the items table.
type itemRow struct {
	kind       model.Kind
	name       string
	modulePath string
	isPub      bool
	doc        string
	record     any
}

// WriteCrate replaces the stored snapshot of c.Name with c and returns the
// new run id. The old snapshot and the new one are swapped in a single
// transaction, so readers never observe a partial model.
func (w *Writer) WriteCrate(ctx context.Context, c *model.Crate, stats RunStats) (string, error) {
	runID := uuid.NewString()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Cascades to items and features.
	if _, err := sq.Delete("runs").
		Where(sq.Eq{"crate_name": c.Name}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return "", fmt.Errorf("failed to delete previous snapshot of %s: %w", c.Name, err)
	}

	if _, err := sq.Insert("runs").
		Columns("id", "crate_name", "file_count", "skipped_count", "created_at").
		Values(runID, c.Name, stats.Files, stats.Skipped, w.now().UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return "", fmt.Errorf("failed to insert run for %s: %w", c.Name, err)
	}

	if err := writeFeatures(ctx, tx, runID, c); err != nil {
		return "", err
	}
	if err := writeItems(ctx, tx, runID, flatten(c)); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return runID, nil
}

// DeleteCrate removes the snapshot of the named crate, if any.
func (w *Writer) DeleteCrate(ctx context.Context, crateName string) error {
	_, err := sq.Delete("runs").
		Where(sq.Eq{"crate_name": crateName}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot of %s: %w", crateName, err)
	}
	return nil
}

func writeFeatures(ctx context.Context, tx *sql.Tx, runID string, c *model.Crate) error {
	if len(c.AvailableFeatures)+len(c.DefaultFeatures) == 0 {
		return nil
	}

	builder := sq.Insert("features").Columns("run_id", "position", "name", "is_default")
	for i, name := range c.AvailableFeatures {
		builder = builder.Values(runID, i, name, false)
	}
	for i, name := range c.DefaultFeatures {
		builder = builder.Values(runID, i, name, true)
	}

	if _, err := builder.RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert features: %w", err)
	}
	return nil
}

func writeItems(ctx context.Context, tx *sql.Tx, runID string, rows []itemRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Build the query once with Squirrel, then prepare it for the batch.
	sqlStr, _, err := sq.Insert("items").
		Columns("run_id", "kind", "position", "name", "module_path", "is_pub", "doc", "payload").
		Values("", "", 0, "", "", false, "", "").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	positions := make(map[model.Kind]int, len(model.AllKinds))
	for _, row := range rows {
		payload, err := json.Marshal(row.record)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", row.kind, row.name, err)
		}

		pos := positions[row.kind]
		positions[row.kind] = pos + 1

		if _, err := stmt.ExecContext(ctx,
			runID, string(row.kind), pos, row.name, row.modulePath, row.isPub, row.doc, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", row.kind, row.name, err)
		}
	}

	return nil
}

// flatten lists every record of c in AllKinds order.
func flatten(c *model.Crate) []itemRow {
	rows := make([]itemRow, 0, c.Total())

	for _, f := range c.Functions {
		rows = append(rows, itemRow{model.KindFunction, f.Name, f.ModulePath, f.IsPub, f.Doc, f})
	}
	for _, s := range c.Structs {
		rows = append(rows, itemRow{model.KindStruct, s.Name, s.ModulePath, s.IsPub, s.Doc, s})
	}
	for _, e := range c.Enums {
		rows = append(rows, itemRow{model.KindEnum, e.Name, e.ModulePath, e.IsPub, e.Doc, e})
	}
	for _, i := range c.Impls {
		rows = append(rows, itemRow{model.KindImpl, i.TypeName, i.ModulePath, true, "", i})
	}
	for _, t := range c.TypeAliases {
		rows = append(rows, itemRow{model.KindTypeAlias, t.Name, t.ModulePath, t.IsPub, t.Doc, t})
	}
	for _, r := range c.Reexports {
		rows = append(rows, itemRow{model.KindReexport, r.SourceCrate, "", true, "", r})
	}
	for _, k := range c.Constants {
		rows = append(rows, itemRow{model.KindConstant, k.Name, k.ModulePath, k.IsPub, k.Doc, k})
	}
	for _, s := range c.Statics {
		rows = append(rows, itemRow{model.KindStatic, s.Name, s.ModulePath, s.IsPub, s.Doc, s})
	}
	for _, a := range c.EnumVariantAliases {
		rows = append(rows, itemRow{model.KindEnumVariantAlias, a.AliasName, a.ModulePath, a.IsPub, "", a})
	}
	for _, m := range c.Macros {
		rows = append(rows, itemRow{model.KindMacro, m.Name, m.ModulePath, m.IsExported, m.Doc, m})
	}

	return rows
}
