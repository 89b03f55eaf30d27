package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appmigrations "github.com/wolfman30/clinic-slots/migrations"
)

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

type openFunc func(databaseURL string) (migrator, error)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(openMigrator).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply clinic-slots database migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("database-url", "", "Postgres URL (defaults to DATABASE_URL)")

	withMigrator := func(cmd *cobra.Command, fn func(m migrator) error) error {
		url, _ := cmd.Flags().GetString("database-url")
		if strings.TrimSpace(url) == "" {
			url = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if url == "" {
			return errors.New("DATABASE_URL is required")
		}
		m, err := open(url)
		if err != nil {
			return err
		}
		defer func() { _, _ = m.Close() }()
		return fn(m)
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate up: %w", err)
				}
				cmd.Println("migrations complete")
				return nil
			})
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last N migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate down: %w", err)
				}
				cmd.Printf("rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	root.AddCommand(downCmd)

	root.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version: %w", err)
			}
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version: %w", err)
				}
				cmd.Printf("forced version to %d\n", version)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m migrator) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("no migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				cmd.Printf("version %d (dirty=%t)\n", version, dirty)
				return nil
			})
		},
	})

	return root
}

func openMigrator(databaseURL string) (migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db driver: %w", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
