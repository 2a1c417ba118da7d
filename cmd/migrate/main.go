// Command migrate applies or rolls back the Postgres schema used when the API
// runs with DB_DRIVER=postgres.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Error loading .env file:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", os.Getenv("DB_ADDR"), "postgres connection string")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	direction := flag.Arg(0)
	if direction != "up" && direction != "down" {
		logger.Fatal("usage: migrate [-addr DSN] up|down")
	}
	if *addr == "" {
		logger.Fatal("DB_ADDR or -addr is required")
	}

	db, err := sql.Open("postgres", *addr)
	if err != nil {
		logger.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	files, err := migrationFiles(direction)
	if err != nil {
		logger.Fatal(err)
	}

	for _, name := range files {
		if err := apply(ctx, db, name); err != nil {
			logger.Fatalw("migration failed", "file", name, "error", err)
		}
		logger.Infow("migration applied", "file", name)
	}
}

// migrationFiles lists the embedded files for a direction, oldest first for
// up and newest first for down.
func migrationFiles(direction string) ([]string, error) {
	names, err := fs.Glob(schemaFS, "schema/*."+direction+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	return names, nil
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	body, err := schemaFS.ReadFile(name)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, strings.TrimSpace(string(body))); err != nil {
		return fmt.Errorf("exec %s: %w", name, err)
	}
	return tx.Commit()
}
