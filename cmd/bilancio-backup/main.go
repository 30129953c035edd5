// Command bilancio-backup exports or restores a household's budget template
// directly against the SQLite database, for offline backups and seeding a
// new year.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/config"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	var (
		household = flag.String("household", "", "household id (required)")
		year      = flag.Int("year", time.Now().Year(), "budget year")
		out       = flag.String("out", "", "export: write template JSON to this file (default stdout)")
		in        = flag.String("in", "", "restore: read template JSON from this file")
	)
	flag.Parse()

	if *household == "" {
		fmt.Fprintln(os.Stderr, "usage: bilancio-backup -household ID [-year YYYY] [-out FILE | -in FILE]")
		os.Exit(2)
	}
	if *out != "" && *in != "" {
		fmt.Fprintln(os.Stderr, "-out and -in are mutually exclusive")
		os.Exit(2)
	}

	cfg := config.Load()
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	backup := services.NewBackup(repo)
	ctx := context.Background()

	if *in != "" {
		data, err := os.ReadFile(*in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read template: %v\n", err)
			os.Exit(1)
		}
		if err := backup.RestoreJSON(ctx, *household, *year, data); err != nil {
			fmt.Fprintf(os.Stderr, "restore: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "restored %s into year %d\n", *in, *year)
		return
	}

	data, err := backup.ExportJSON(ctx, *household, *year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write template: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "exported year %d to %s\n", *year, *out)
}
