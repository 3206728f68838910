package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
	"gdinfer/internal/typeset"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a method has no stored report.
var ErrNotFound = errors.New("storage: not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			hash TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS methods (
			id TEXT PRIMARY KEY,
			type TEXT,
			method TEXT,
			filepath TEXT,
			line INTEGER,
			order_index INTEGER,
			in_cycle INTEGER,
			return_explicit TEXT,
			return_type TEXT,
			return_confidence TEXT,
			return_type_confidence TEXT,
			return_reason TEXT,
			details JSON
		);`,
		`CREATE TABLE IF NOT EXISTS parameters (
			method_id TEXT,
			idx INTEGER,
			name TEXT,
			explicit_type TEXT,
			type TEXT,
			confidence TEXT,
			type_confidence TEXT,
			reason TEXT,
			evidence INTEGER,
			PRIMARY KEY (method_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS cycles (
			cycle_id INTEGER,
			position INTEGER,
			method_id TEXT,
			PRIMARY KEY (cycle_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_methods_file ON methods(filepath);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- FileStore Implementation ---

func (s *SQLiteStore) FileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, hash FROM files")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertFile(ctx context.Context, path, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, hash) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET hash=excluded.hash
	`, path, hash)
	return err
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	queries := []string{
		"DELETE FROM parameters WHERE method_id IN (SELECT id FROM methods WHERE filepath = ?)",
		"DELETE FROM methods WHERE filepath = ?",
		"DELETE FROM files WHERE path = ?",
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q, path); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- ReportStore Implementation ---

type methodDetails struct {
	Confidence   string   `json:"confidence"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

func (s *SQLiteStore) SaveReports(ctx context.Context, reports []*inference.MethodReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	methodStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO methods (id, type, method, filepath, line, order_index, in_cycle,
			return_explicit, return_type, return_confidence, return_type_confidence, return_reason, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type=excluded.type,
			method=excluded.method,
			filepath=excluded.filepath,
			line=excluded.line,
			order_index=excluded.order_index,
			in_cycle=excluded.in_cycle,
			return_explicit=excluded.return_explicit,
			return_type=excluded.return_type,
			return_confidence=excluded.return_confidence,
			return_type_confidence=excluded.return_type_confidence,
			return_reason=excluded.return_reason,
			details=excluded.details
	`)
	if err != nil {
		return err
	}
	defer methodStmt.Close()

	clearStmt, err := tx.PrepareContext(ctx, "DELETE FROM parameters WHERE method_id = ?")
	if err != nil {
		return err
	}
	defer clearStmt.Close()

	paramStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parameters (method_id, idx, name, explicit_type, type, confidence, type_confidence, reason, evidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer paramStmt.Close()

	for _, r := range reports {
		rec := RecordFromReport(r)
		id := rec.Key.String()
		details, _ := json.Marshal(methodDetails{
			Confidence:   rec.Confidence.String(),
			Dependencies: rec.Dependencies,
			Dependents:   rec.Dependents,
		})
		ret := rec.Return
		if _, err := methodStmt.ExecContext(ctx, id, rec.Key.Type, rec.Key.Method, rec.File, rec.Line, rec.OrderIndex, rec.InCycle,
			ret.ExplicitType, ret.Type, ret.Confidence.String(), ret.TypeConfidence.String(), ret.Reason, details); err != nil {
			return fmt.Errorf("failed to save method %s: %w", id, err)
		}
		if _, err := clearStmt.ExecContext(ctx, id); err != nil {
			return err
		}
		for _, p := range rec.Params {
			if _, err := paramStmt.ExecContext(ctx, id, p.Index, p.Name, p.ExplicitType, p.Type,
				p.Confidence.String(), p.TypeConfidence.String(), p.Reason, p.Evidence); err != nil {
				return fmt.Errorf("failed to save parameter %s(%s): %w", id, p.Name, err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteMethods(ctx context.Context, keys []graph.MethodKey) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM parameters WHERE method_id = ?", k.String()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM methods WHERE id = ?", k.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) UpdateOrder(ctx context.Context, order []graph.OrderEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE methods SET order_index = ?, in_cycle = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, entry := range order {
		if _, err := stmt.ExecContext(ctx, i, entry.InCycle, entry.Key.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveCycles(ctx context.Context, cycles [][]graph.MethodKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cycles"); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cycles (cycle_id, position, method_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cycles {
		for j, k := range c {
			if _, err := stmt.ExecContext(ctx, i, j, k.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadCycles(ctx context.Context) ([][]graph.MethodKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT cycle_id, method_id FROM cycles ORDER BY cycle_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles [][]graph.MethodKey
	last := -1
	for rows.Next() {
		var id int
		var method string
		if err := rows.Scan(&id, &method); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		k, ok := graph.ParseMethodKey(method)
		if !ok {
			continue
		}
		if id != last {
			cycles = append(cycles, nil)
			last = id
		}
		cycles[len(cycles)-1] = append(cycles[len(cycles)-1], k)
	}
	return cycles, rows.Err()
}

const methodColumns = `id, type, method, filepath, line, order_index, in_cycle,
	return_explicit, return_type, return_confidence, return_type_confidence, return_reason, details`

type scanner interface {
	Scan(dest ...any) error
}

func scanMethod(row scanner) (*MethodRecord, string, error) {
	var (
		rec                MethodRecord
		id, conf, typeConf string
		details            []byte
	)
	err := row.Scan(&id, &rec.Key.Type, &rec.Key.Method, &rec.File, &rec.Line, &rec.OrderIndex, &rec.InCycle,
		&rec.Return.ExplicitType, &rec.Return.Type, &conf, &typeConf, &rec.Return.Reason, &details)
	if err != nil {
		return nil, "", err
	}
	rec.Return.Confidence = typeset.ParseReferenceConfidence(conf)
	rec.Return.TypeConfidence = typeset.ParseTypeConfidence(typeConf)
	if len(details) > 0 {
		var d methodDetails
		if err := json.Unmarshal(details, &d); err == nil {
			rec.Confidence = typeset.ParseReferenceConfidence(d.Confidence)
			rec.Dependencies = d.Dependencies
			rec.Dependents = d.Dependents
		}
	}
	return &rec, id, nil
}

func (s *SQLiteStore) GetMethod(ctx context.Context, key graph.MethodKey) (*MethodRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+methodColumns+" FROM methods WHERE id = ?", key.String())
	rec, id, err := scanMethod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.Params, err = s.loadParams(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListMethods(ctx context.Context, path string) ([]*MethodRecord, error) {
	query := "SELECT " + methodColumns + " FROM methods"
	var args []any
	if path != "" {
		query += " WHERE filepath = ?"
		args = append(args, path)
	}
	query += " ORDER BY order_index, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query methods: %w", err)
	}
	var (
		recs []*MethodRecord
		ids  []string
	)
	for rows.Next() {
		rec, id, err := scanMethod(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan method: %w", err)
		}
		recs = append(recs, rec)
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, rec := range recs {
		if rec.Params, err = s.loadParams(ctx, ids[i]); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (s *SQLiteStore) loadParams(ctx context.Context, methodID string) ([]ParamRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, explicit_type, type, confidence, type_confidence, reason, evidence
		FROM parameters WHERE method_id = ? ORDER BY idx
	`, methodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	var params []ParamRecord
	for rows.Next() {
		var (
			p              ParamRecord
			conf, typeConf string
		)
		if err := rows.Scan(&p.Index, &p.Name, &p.ExplicitType, &p.Type, &conf, &typeConf, &p.Reason, &p.Evidence); err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		p.Confidence = typeset.ParseReferenceConfidence(conf)
		p.TypeConfidence = typeset.ParseTypeConfidence(typeConf)
		params = append(params, p)
	}
	return params, rows.Err()
}
