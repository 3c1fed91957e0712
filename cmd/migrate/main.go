package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up                 apply pending migrations
  down               roll back the latest migration
  status             list migrations and whether they are applied
  to <version>       move to YYYYMMDDHHMMSS
  create <name>      write an empty migration into -dir
  validate           check the migrations in -dir`

func main() {
	dir := flag.String("dir", migrate.SourceDir, "migrations source directory (create, validate)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, rest := args[0], args[1:]

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	// create and validate work on source files only.
	switch cmd {
	case "create":
		if len(rest) == 0 {
			fail("create needs a name")
		}
		path, err := migrate.Create(*dir, strings.Join(rest, " "), time.Now())
		if err != nil {
			fail(err.Error())
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.Validate(os.DirFS(*dir)); err != nil {
			fail("invalid migrations:\n" + err.Error())
		}
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	if strings.EqualFold(cfg.DB.Driver, config.DriverSQLite) {
		fail("goose migrations target postgres; sqlite databases migrate with STREETEATS_AUTO_MIGRATE")
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect database", err)
		os.Exit(1)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql.DB", err)
		os.Exit(1)
	}
	m, err := migrate.New(sqlDB, nil)
	if err != nil {
		logg.Error(ctx, "failed to prepare migrations", err)
		os.Exit(1)
	}

	if err := run(ctx, m, cmd, rest); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, m *migrate.Migrator, cmd string, args []string) error {
	switch cmd {
	case "up":
		applied, err := m.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", len(applied))
	case "down":
		version, err := m.Down(ctx)
		if err != nil {
			return err
		}
		fmt.Println("rolled back", version)
	case "to":
		if len(args) != 1 {
			return fmt.Errorf("to needs a version")
		}
		version, err := m.To(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println("schema at", version)
	case "status":
		rows, err := m.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tFILE")
		for _, r := range rows {
			state := "pending"
			if r.Applied {
				state = "applied"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.Version, state, r.Path)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
