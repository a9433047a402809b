// Package database opens the adverse-drug-event database for the SQL tool
// server. The dialect is chosen from the connection URL scheme, so one
// binary serves any OnSIDES deployment the way MCP-Alchemy serves any
// SQLAlchemy URL.
package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a GORM connection with the inspection and query operations the
// SQL tools need.
type DB struct {
	orm *gorm.DB
}

// Column describes one column of a table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// Result holds the rows of one query, with every value rendered as text.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Open connects to the database named by url. Supported schemes:
// postgres, postgresql, mysql, sqlite, sqlserver.
func Open(url string) (*DB, error) {
	dialector, err := dialectorFor(url)
	if err != nil {
		return nil, err
	}
	orm, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &DB{orm: orm}, nil
}

func dialectorFor(url string) (gorm.Dialector, error) {
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return nil, fmt.Errorf("database URL %q has no scheme", url)
	}
	switch scheme {
	case "postgres", "postgresql":
		return postgres.Open(url), nil
	case "mysql":
		// go-sql-driver uses its own DSN form, not a URL.
		return mysql.Open(rest), nil
	case "sqlite":
		return sqlite.Open(rest), nil
	case "sqlserver":
		return sqlserver.Open(url), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Tables lists the table names in the connected database.
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	return db.orm.WithContext(ctx).Migrator().GetTables()
}

// Columns describes the columns of a table.
func (db *DB) Columns(ctx context.Context, table string) ([]Column, error) {
	types, err := db.orm.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	cols := make([]Column, 0, len(types))
	for _, ct := range types {
		nullable, _ := ct.Nullable()
		pk, _ := ct.PrimaryKey()
		cols = append(cols, Column{
			Name:       ct.Name(),
			Type:       ct.DatabaseTypeName(),
			Nullable:   nullable,
			PrimaryKey: pk,
		})
	}
	return cols, nil
}

// Query executes one SQL statement and renders every value as text.
// Named parameters use @name syntax and are bound from params.
func (db *DB) Query(ctx context.Context, query string, params map[string]any) (*Result, error) {
	tx := db.orm.WithContext(ctx)
	var stmt *gorm.DB
	if len(params) > 0 {
		stmt = tx.Raw(query, params)
	} else {
		stmt = tx.Raw(query)
	}

	rows, err := stmt.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, query string) error {
	return db.orm.WithContext(ctx).Exec(query).Error
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.orm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
