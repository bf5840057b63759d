package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/scholar-impact/pkg/importer"
)

var (
	importSource    string
	importAll       bool
	importOutputDir string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download reference tables and build table directories",
	Long: `Import fetches each configured source (http(s), file:// or a local path,
optionally zipped), parses it and writes <output-dir>/<table_id>/ with a
manifest.yaml and a data.gob snapshot.`,
	RunE: runImport,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured table sources and their last check",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sdb, _, err := openSources()
		if err != nil {
			return err
		}
		defer sdb.Close()
		return printSources(cmd, sdb)
	},
}

var sourcesSetURLCmd = &cobra.Command{
	Use:   "set-url <source-id> <url>",
	Short: "Override the URL of a source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdb, _, err := openSources()
		if err != nil {
			return err
		}
		defer sdb.Close()
		if err := sdb.SetURL(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "source ID to import")
	importCmd.Flags().BoolVar(&importAll, "all", false, "import all configured sources")
	importCmd.Flags().StringVar(&importOutputDir, "output-dir", "tables", "output directory for table directories")

	sourcesCmd.AddCommand(sourcesSetURLCmd)
}

// openSources opens the source database and seeds it with the configured sources.
func openSources() (*importer.SourceDB, *importer.Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.SourcesDB), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", filepath.Dir(cfg.SourcesDB), err)
	}
	sdb, err := importer.OpenSourceDB(cfg.SourcesDB)
	if err != nil {
		return nil, nil, err
	}

	catalog := importer.NewCatalog()
	for _, spec := range cfg.Sources {
		catalog.Register(importer.NewCSVAdapter(spec))
	}
	if err := sdb.Seed(catalog.All()); err != nil {
		sdb.Close()
		return nil, nil, err
	}
	return sdb, catalog, nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	sdb, catalog, err := openSources()
	if err != nil {
		return err
	}
	defer sdb.Close()

	if !importAll && importSource == "" {
		if err := printSources(cmd, sdb); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nUsage:\n  scholar-impact import --source <id> [--output-dir <dir>]\n  scholar-impact import --all [--output-dir <dir>]")
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	var adapters []importer.Adapter
	if importAll {
		adapters = catalog.All()
	} else {
		a, err := catalog.Get(importSource)
		if err != nil {
			return err
		}
		adapters = []importer.Adapter{a}
	}

	var failed int
	for _, a := range adapters {
		if err := importOne(ctx, sdb, a); err != nil {
			logger.Error("import failed", "source", a.ID(), "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(adapters))
	}
	return nil
}

func importOne(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}
	logger.Info("importing", "source", a.ID(), "url", url)

	start := time.Now()
	res, err := a.Import(ctx, url, importOutputDir)
	if err != nil {
		return err
	}
	if err := sdb.RecordImport(a.ID(), res.Entries); err != nil {
		return err
	}
	logger.Info("import complete",
		"source", a.ID(),
		"dir", res.Dir,
		"entries", res.Entries,
		"skipped", res.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func printSources(cmd *cobra.Command, sdb *importer.SourceDB) error {
	sources, err := sdb.ListSources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sources configured (add them under `sources:` in the config file).")
		return nil
	}

	rows := make([][]string, 0, len(sources))
	for _, src := range sources {
		status, checked, imported, entries := "-", "-", "-", "-"
		if src.LastStatus != nil {
			status = strconv.Itoa(*src.LastStatus)
		}
		if src.LastCheck != nil {
			checked = time.Unix(*src.LastCheck, 0).Format(time.DateTime)
		}
		if src.LastImport != nil {
			imported = time.Unix(*src.LastImport, 0).Format(time.DateTime)
		}
		if src.Entries != nil {
			entries = strconv.Itoa(*src.Entries)
		}
		rows = append(rows, []string{src.SourceID, src.TableID, src.SourceURL, status, checked, imported, entries})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Source", "Table", "URL", "Status", "Checked", "Imported", "Entries"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	))
	return nil
}
