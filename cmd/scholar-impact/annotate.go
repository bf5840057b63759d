package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
	"github.com/hazyhaar/scholar-impact/pkg/page"
)

var (
	annotateURL     string
	annotateOut     string
	annotateReport  bool
	annotateJSON    bool
	annotateTimeout time.Duration
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [file|-]",
	Short: "Annotate a saved or live profile page",
	Long: `Annotate reads a profile page (a file, stdin, or a live URL rendered in
headless Chrome), adds an impact factor marker to every matched publication and
a total block, then writes the annotated page.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVar(&annotateURL, "url", "", "render this profile URL with headless Chrome instead of reading a file")
	annotateCmd.Flags().StringVarP(&annotateOut, "out", "o", "", "write the annotated page here (default stdout)")
	annotateCmd.Flags().BoolVar(&annotateReport, "report", false, "print a per-entry report to stderr")
	annotateCmd.Flags().BoolVar(&annotateJSON, "json", false, "print the report as JSON instead of a table")
	annotateCmd.Flags().DurationVar(&annotateTimeout, "timeout", 45*time.Second, "page render timeout with --url")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store := openStore(ctx, cfg)

	doc, err := readDocument(ctx, args)
	if err != nil {
		return err
	}

	p, err := page.ParseString(doc, cfg.Selectors)
	if err != nil {
		return err
	}
	report, err := p.Run(store.Matcher())
	if errors.Is(err, page.ErrOffPage) {
		logger.Warn("document is not a profile listing, summary removed", "removed", report.Removed)
	} else if err != nil {
		return err
	}

	out, err := p.HTML()
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	if annotateOut == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else if err := writeFileAtomic(annotateOut, []byte(out)); err != nil {
		return err
	}

	logger.Info("page annotated",
		"entries", report.Summary.Entries,
		"matched", report.Summary.Matched,
		"counted", report.Summary.Counted,
		"total", report.Summary.Total,
	)

	if annotateReport || annotateJSON {
		return printReport(cmd.ErrOrStderr(), report)
	}
	return nil
}

func readDocument(ctx context.Context, args []string) (string, error) {
	if annotateURL != "" {
		return page.Render(ctx, annotateURL, page.RenderOptions{
			Timeout:   annotateTimeout,
			Settle:    cfg.Warmup,
			Container: cfg.Selectors.Container,
			Logger:    logger,
		})
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(data), nil
}

func printReport(w io.Writer, report page.Report) error {
	if annotateJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, entryRow(e.Index+1, e.Label, e.Key, e.Result))
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Venue line", "Key", "Matched", "IF", "Counted"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		"", "", "", strconv.Itoa(report.Summary.Matched), strconv.FormatFloat(report.Summary.Total, 'f', 2, 64), strconv.Itoa(report.Summary.Counted),
	))
	return nil
}

func entryRow(n int, label, key string, res journal.MatchResult) []string {
	if !res.Matched {
		return []string{strconv.Itoa(n), label, key, "-", "", ""}
	}
	matched := res.CanonicalKey
	if res.Prefix {
		matched += " (prefix)"
	}
	counted := "no"
	if res.Eligible {
		counted = "yes"
	}
	return []string{strconv.Itoa(n), label, key, matched, strconv.FormatFloat(res.Score, 'f', 2, 64), counted}
}

// writeFileAtomic replaces path through a rename so watchers never see a
// partial document.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
