// Command migrate applies the embedded schema migrations. The connection
// comes from -dsn, otherwise from the same config.toml and COURIER_DB_*
// variables the server reads.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/courier/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

type options struct {
	up, down, version bool
	steps             int
	force             int
	forceSet          bool
}

func main() {
	var (
		dsn  = flag.String("dsn", "", "postgres:// connection URL (overrides config)")
		opts options
	)
	flag.BoolVar(&opts.up, "up", false, "Apply all pending migrations")
	flag.BoolVar(&opts.down, "down", false, "Revert all migrations")
	flag.IntVar(&opts.steps, "steps", 0, "Migrate N steps (positive=up, negative=down)")
	flag.BoolVar(&opts.version, "version", false, "Print the current schema version")
	flag.IntVar(&opts.force, "force", -1, "Force the recorded version without migrating")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env failed: %v", err)
	}

	if *dsn == "" {
		db, err := config.LoadDatabase()
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		*dsn = db.MigrationURL()
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer m.Close()

	msg, err := run(m, opts)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(msg)
}

func run(m *migrate.Migrate, opts options) (string, error) {
	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "version: none", nil
		}
		if err != nil {
			return "", fmt.Errorf("read version: %w", err)
		}
		return fmt.Sprintf("version: %d, dirty: %v", v, dirty), nil
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return "", fmt.Errorf("force version: %w", err)
		}
		return fmt.Sprintf("forced to version %d", opts.force), nil
	case opts.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return "", fmt.Errorf("migrate up: %w", err)
		}
		return "migrations applied", nil
	case opts.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return "", fmt.Errorf("migrate down: %w", err)
		}
		return "migrations reverted", nil
	case opts.steps != 0:
		if err := ignoreNoChange(m.Steps(opts.steps)); err != nil {
			return "", fmt.Errorf("migrate %d steps: %w", opts.steps, err)
		}
		return fmt.Sprintf("applied %d migration steps", opts.steps), nil
	default:
		flag.Usage()
		return "", errors.New("no action: pass -up, -down, -steps, -version, or -force")
	}
}
