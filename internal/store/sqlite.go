package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"linewaste/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// sqlColumns 与 model.Columns 一一对应
var sqlColumns = []string{
	"date", "shift", "machine", "variant", "defect_type",
	"hour1", "hour2", "hour3", "hour4", "hour5", "hour6", "hour7", "hour8",
	"correction", "total_reject", "audited_waste_kg", "output_pcs",
}

// SQLiteStore SQLite 数据库存储层
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建新的 SQLite 存储
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite 建议单连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Location 实现 RecordStore
func (s *SQLiteStore) Location() string {
	return s.path
}

// Close 关闭数据库连接
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadAll 按插入顺序读出全部行
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]model.RawRow, error) {
	query := "SELECT " + strings.Join(sqlColumns, ", ") + " FROM observations ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query observations failed: %w", err)
	}
	defer rows.Close()

	out := []model.RawRow{}
	for rows.Next() {
		vals := make([]sql.NullString, len(sqlColumns))
		dest := make([]any, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan observation failed: %w", err)
		}
		row := make(model.RawRow, len(vals))
		for i, v := range vals {
			row[model.Columns[i]] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations failed: %w", err)
	}
	return out, nil
}

// ReplaceAll 在一个事务内清表并批量插入；任何一步失败都回滚
func (s *SQLiteStore) ReplaceAll(ctx context.Context, rows []model.RawRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM observations"); err != nil {
		return fmt.Errorf("failed to clear observations: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(sqlColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO observations (%s) VALUES (%s)",
		strings.Join(sqlColumns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, 0, len(model.Columns))
		for _, col := range model.Columns {
			args = append(args, row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
