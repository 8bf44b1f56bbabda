// Command catalogctl exports, imports, resets and inspects the catalog in
// the configured backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/curriculum"
	"github.com/p-n-ai/teaching-torch/internal/platform/config"
	"github.com/p-n-ai/teaching-torch/internal/platform/logging"
	"github.com/p-n-ai/teaching-torch/internal/platform/storage"
	"github.com/p-n-ai/teaching-torch/internal/report"
)

const usage = `usage: catalogctl <command> [flags]

commands:
  export [-o file]       write the catalog as JSON (default: dated file name)
  import <file>          replace the catalog with a JSON export
  reset                  discard the catalog and reseed the defaults
  stats                  print catalog statistics as JSON
  inventory -o file      write an .xlsx inventory
`

var errUsage = errors.New("invalid usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	cfg.Log.Format = "text"
	logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		slog.Error("catalogctl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, closeBackend, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	seed, err := curriculum.Load(cfg.SeedPath)
	if err != nil {
		return err
	}
	store, err := catalog.Open(ctx, catalog.Config{
		Backend:       backend,
		Key:           cfg.Storage.Key,
		Seed:          seed,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "export":
		return runExport(ctx, store, rest, stdout)
	case "import":
		return runImport(ctx, store, rest, stdout)
	case "reset":
		if err := store.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "catalog reset to defaults")
		return nil
	case "stats":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(store.Stats())
	case "inventory":
		return runInventory(store, rest, stdout)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func runExport(ctx context.Context, store *catalog.Store, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	exp, err := store.Export(ctx)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = exp.Filename
	}
	if path == "-" {
		_, err := stdout.Write(exp.Data)
		return err
	}
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintln(stdout, "exported to", path)
	return nil
}

func runImport(ctx context.Context, store *catalog.Store, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import takes exactly one file", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import: %w", err)
	}
	if err := store.Import(ctx, data); err != nil {
		return err
	}
	st := store.Stats()
	fmt.Fprintf(stdout, "imported %d grades, %d subjects, %d resources, %d videos\n",
		st.TotalGrades, st.TotalSubjects, st.TotalResources, st.TotalVideos)
	return nil
}

func runInventory(store *catalog.Store, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inventory", flag.ContinueOnError)
	out := fs.String("o", "", "output .xlsx file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *out == "" {
		return fmt.Errorf("%w: inventory requires -o", errUsage)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating inventory: %w", err)
	}
	root := store.Snapshot()
	if err := report.WriteInventory(f, &root, store.Stats()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing inventory: %w", err)
	}
	fmt.Fprintln(stdout, "inventory written to", *out)
	return nil
}
