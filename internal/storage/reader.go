package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/cratescope/internal/model"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a crate name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Summary describes one stored snapshot.
type Summary struct {
	RunID             string             `json:"run_id" yaml:"run_id"`
	CrateName         string             `json:"crate_name" yaml:"crate_name"`
	Files             int                `json:"files" yaml:"files"`
	Skipped           int                `json:"skipped" yaml:"skipped"`
	CreatedAt         time.Time          `json:"created_at" yaml:"created_at"`
	Counts            map[model.Kind]int `json:"counts" yaml:"counts"` // Every kind present, zero included
	AvailableFeatures []string           `json:"available_features" yaml:"available_features"`
	DefaultFeatures   []string           `json:"default_features" yaml:"default_features"`
}

// Reader reads stored snapshots.
type Reader struct {
	db *sql.DB
}

// NewReader creates a Reader. DB should have schema already created.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Crates returns the names of every stored crate, sorted.
func (r *Reader) Crates(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("crate_name").
		From("runs").
		OrderBy("crate_name").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query crates: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan crate name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Summary returns the run metadata, features and per-kind record counts of
// the named crate's snapshot.
func (r *Reader) Summary(ctx context.Context, crateName string) (*Summary, error) {
	s := &Summary{
		CrateName:         crateName,
		Counts:            make(map[model.Kind]int, len(model.AllKinds)),
		AvailableFeatures: []string{},
		DefaultFeatures:   []string{},
	}
	var createdAt string

	err := sq.Select("id", "file_count", "skipped_count", "created_at").
		From("runs").
		Where(sq.Eq{"crate_name": crateName}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&s.RunID, &s.Files, &s.Skipped, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, crateName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run for %s: %w", crateName, err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	for _, kind := range model.AllKinds {
		s.Counts[kind] = 0
	}
	if err := r.countItems(ctx, s); err != nil {
		return nil, err
	}
	if err := r.readFeatures(ctx, s); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Reader) countItems(ctx context.Context, s *Summary) error {
	rows, err := sq.Select("kind", "COUNT(*)").
		From("items").
		Where(sq.Eq{"run_id": s.RunID}).
		GroupBy("kind").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return fmt.Errorf("failed to scan item count: %w", err)
		}
		s.Counts[model.Kind(kind)] = n
	}
	return rows.Err()
}

func (r *Reader) readFeatures(ctx context.Context, s *Summary) error {
	rows, err := sq.Select("name", "is_default").
		From("features").
		Where(sq.Eq{"run_id": s.RunID}).
		OrderBy("is_default", "position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var isDefault bool
		if err := rows.Scan(&name, &isDefault); err != nil {
			return fmt.Errorf("failed to scan feature: %w", err)
		}
		if isDefault {
			s.DefaultFeatures = append(s.DefaultFeatures, name)
		} else {
			s.AvailableFeatures = append(s.AvailableFeatures, name)
		}
	}
	return rows.Err()
}

// LoadCrate rebuilds the stored model of the named crate. Records come back
// in their original order.
func (r *Reader) LoadCrate(ctx context.Context, crateName string) (*model.Crate, error) {
	s, err := r.Summary(ctx, crateName)
	if err != nil {
		return nil, err
	}

	c := model.NewCrate(crateName)
	c.AvailableFeatures = s.AvailableFeatures
	c.DefaultFeatures = s.DefaultFeatures

	rows, err := sq.Select("kind", "payload").
		From("items").
		Where(sq.Eq{"run_id": s.RunID}).
		OrderBy("kind", "position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if err := decodeInto(&c.Items, model.Kind(kind), []byte(payload)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

// FindByName returns the module path and kind of every public record named
// name in the crate's snapshot.
func (r *Reader) FindByName(ctx context.Context, crateName, name string) ([]Location, error) {
	rows, err := sq.Select("i.kind", "i.module_path").
		From("items i").
		Join("runs r ON r.id = i.run_id").
		Where(sq.Eq{"r.crate_name": crateName, "i.name": name, "i.is_pub": true}).
		OrderBy("i.module_path", "i.kind").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		var loc Location
		var kind string
		if err := rows.Scan(&kind, &loc.ModulePath); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		loc.Kind = model.Kind(kind)
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// Location is where a named record lives.
type Location struct {
	Kind       model.Kind `json:"kind" yaml:"kind"`
	ModulePath string     `json:"module_path" yaml:"module_path"`
}

func decodeInto(items *model.Items, kind model.Kind, payload []byte) error {
	var err error
	switch kind {
	case model.KindFunction:
		err = appendDecoded(&items.Functions, payload)
	case model.KindStruct:
		err = appendDecoded(&items.Structs, payload)
	case model.KindEnum:
		err = appendDecoded(&items.Enums, payload)
	case model.KindImpl:
		err = appendDecoded(&items.Impls, payload)
	case model.KindTypeAlias:
		err = appendDecoded(&items.TypeAliases, payload)
	case model.KindReexport:
		err = appendDecoded(&items.Reexports, payload)
	case model.KindConstant:
		err = appendDecoded(&items.Constants, payload)
	case model.KindStatic:
		err = appendDecoded(&items.Statics, payload)
	case model.KindEnumVariantAlias:
		err = appendDecoded(&items.EnumVariantAliases, payload)
	case model.KindMacro:
		err = appendDecoded(&items.Macros, payload)
	default:
		return fmt.Errorf("unknown item kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return nil
}

func appendDecoded[T any](dst *[]T, payload []byte) error {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return err
	}
	*dst = append(*dst, v)
	return nil
}
