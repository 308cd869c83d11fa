package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"learnnest/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS

const (
	migrationTableExistsQuery = `SELECT COUNT(*) FROM USER_TABLES WHERE TABLE_NAME = 'SCHEMA_MIGRATIONS'`
	createMigrationTableQuery = `CREATE TABLE SCHEMA_MIGRATIONS (
		VERSION    VARCHAR2(128) NOT NULL PRIMARY KEY,
		APPLIED_AT TIMESTAMP DEFAULT SYSTIMESTAMP NOT NULL
	)`
	selectAppliedVersionsQuery = `SELECT VERSION FROM SCHEMA_MIGRATIONS`
	insertAppliedVersionQuery  = `INSERT INTO SCHEMA_MIGRATIONS (VERSION) VALUES (:1)`
)

// Migrations returns the embedded migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// RunMigrations applies every *.up.sql file in migrations that is not yet
// recorded in SCHEMA_MIGRATIONS, in file name order. It returns the versions
// it applied.
func RunMigrations(ctx context.Context, db *sqlx.DB, migrations fs.FS) ([]string, error) {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return nil, err
	}

	var appliedList []string
	if err := db.SelectContext(ctx, &appliedList, selectAppliedVersionsQuery); err != nil {
		return nil, fmt.Errorf("could not read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(appliedList))
	for _, v := range appliedList {
		applied[v] = true
	}

	names, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("could not list migrations: %w", err)
	}
	sort.Strings(names)

	var ran []string
	for _, name := range names {
		version := strings.TrimSuffix(name, ".up.sql")
		if applied[version] {
			continue
		}

		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return ran, fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return ran, fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		if _, err := db.ExecContext(ctx, insertAppliedVersionQuery, version); err != nil {
			return ran, fmt.Errorf("could not record migration %s: %w", name, err)
		}

		logger.Get().Info("Executed migration", zap.String("version", version))
		ran = append(ran, version)
	}

	logger.Get().Info("Migrations completed successfully", zap.Int("applied", len(ran)))
	return ran, nil
}

func ensureMigrationTable(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, migrationTableExistsQuery); err != nil {
		return fmt.Errorf("could not check migration table: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, createMigrationTableQuery); err != nil {
		return fmt.Errorf("could not create migration table: %w", err)
	}
	return nil
}

// splitStatements splits a script on semicolons. go-ora executes one
// statement per call and rejects a trailing semicolon.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
