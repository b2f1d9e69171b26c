package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/japaniel/namelex/pkg/config"
	"github.com/japaniel/namelex/pkg/logging"
	"github.com/japaniel/namelex/pkg/metrics"
	"github.com/japaniel/namelex/pkg/pipeline"
)

const usage = `usage:
  namelex [build] [--config F] [--db PATH] [--top-n N] [--output DIR] [--countries US,DE] [--formats json,ts]
  namelex import  [--config F] [--db PATH] [--source DIR] [--source-url URL]
  namelex verify  [--config F] [--output DIR]
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "build"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "build":
		err = runBuild(ctx, args, stdout, stderr)
	case "import":
		err = runImport(ctx, args, stdout, stderr)
	case "verify":
		err = runVerify(args, stdout, stderr)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		err = fmt.Errorf("unknown command %q", cmd)
		fmt.Fprint(stderr, usage)
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// commonFlags registers the flags shared by every command and returns a
// function that loads the config and applies the flags that were set.
func commonFlags(fs *flag.FlagSet) func(apply func(set map[string]bool, cfg *config.Config)) (*config.Config, error) {
	configPath := fs.String("config", "", "Path to YAML config file (default: NAMELEX_* environment only)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	return func(apply func(map[string]bool, *config.Config)) (*config.Config, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if set["log-level"] {
			cfg.Log.Level = *logLevel
		}
		apply(set, cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("namelex "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runBuild(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("build", stderr)
	load := commonFlags(fs)
	dbPath := fs.String("db", "", "Path to the SQLite name dataset")
	var topN int
	fs.IntVar(&topN, "top-n", 500, "Number of top names to extract per country and gender")
	fs.IntVar(&topN, "n", 500, "Shorthand for --top-n")
	var output string
	fs.StringVar(&output, "output", "output", "Output directory for generated files")
	fs.StringVar(&output, "o", "output", "Shorthand for --output")
	countries := fs.String("countries", "", "Comma-separated country codes (default: every country in the dataset)")
	formats := fs.String("formats", "", "Comma-separated artifact formats: json,ts,mjs,cjs (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := load(func(set map[string]bool, cfg *config.Config) {
		if set["db"] {
			cfg.Dataset.Path = *dbPath
		}
		if set["top-n"] || set["n"] {
			cfg.Build.TopN = topN
		}
		if set["output"] || set["o"] {
			cfg.Build.OutputDir = output
		}
		if set["countries"] {
			cfg.Build.Countries = splitList(*countries)
		}
		if set["formats"] {
			cfg.Build.Formats = splitList(*formats)
		}
	})
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, err := pipeline.New(cfg, log, metrics.New()).Run(ctx)
	if err != nil {
		log.Error("build failed", zap.Error(err))
		return err
	}

	printSummary(stdout, res)
	if len(res.Rejected) > 0 {
		fmt.Fprintf(stderr, "Warning: unrecognized country codes skipped: %s\n", strings.Join(res.Rejected, ", "))
	}
	return res.Err()
}

func runImport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("import", stderr)
	load := commonFlags(fs)
	dbPath := fs.String("db", "", "Path to the SQLite name dataset to create or update")
	source := fs.String("source", "", "Directory of per-country CSV files")
	sourceURL := fs.String("source-url", "", "URL of a .tar.gz archive to download when the source directory is empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := load(func(set map[string]bool, cfg *config.Config) {
		if set["db"] {
			cfg.Dataset.Path = *dbPath
		}
		if set["source"] {
			cfg.Dataset.SourceDir = *source
		}
		if set["source-url"] {
			cfg.Dataset.SourceURL = *sourceURL
		}
	})
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	sum, err := pipeline.Import(ctx, cfg, log)
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "Imported %d files into %s\n", sum.Files, cfg.Dataset.Path)
	p.Fprintf(stdout, "  - Countries: %d\n", sum.Countries)
	p.Fprintf(stdout, "  - First names: %d\n", sum.FirstNames)
	p.Fprintf(stdout, "  - Last names: %d\n", sum.LastNames)
	p.Fprintf(stdout, "  - Skipped rows: %d\n", sum.SkippedRows)
	return nil
}

func runVerify(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", stderr)
	load := commonFlags(fs)
	var output string
	fs.StringVar(&output, "output", "output", "Directory holding the generated files")
	fs.StringVar(&output, "o", "output", "Shorthand for --output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := load(func(set map[string]bool, cfg *config.Config) {
		if set["output"] || set["o"] {
			cfg.Build.OutputDir = output
		}
	})
	if err != nil {
		return err
	}

	lex, err := pipeline.Verify(cfg)
	if err != nil {
		return err
	}
	formats, err := cfg.OutputFormats()
	if err != nil {
		return err
	}
	message.NewPrinter(language.English).Fprintf(stdout, "Verified %d artifacts in %s: %d entries each\n",
		len(formats), cfg.Build.OutputDir, lex.Len())
	return nil
}

func printSummary(w io.Writer, res *pipeline.Result) {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(w, "Generated files:")
	for _, a := range res.Artifacts {
		if a.Err != nil {
			p.Fprintf(w, "  FAILED %s: %v\n", a.Format, a.Err)
			continue
		}
		p.Fprintf(w, "  Saved %s (%d bytes)\n", a.Path, a.Bytes)
	}
	if res.ReportPath != "" {
		fmt.Fprintf(w, "  Saved report to %s\n", res.ReportPath)
	}

	fmt.Fprintf(w, "\n%s\nEXTRACTION SUMMARY\n%s\n", rule, rule)
	fmt.Fprintln(w, "Parameters:")
	p.Fprintf(w, "  - Countries processed: %d\n", len(res.Countries)-len(res.Rejected))
	p.Fprintf(w, "  - Top N per country: %d\n", res.TopN)
	fmt.Fprintln(w, "\nExtracted names:")
	p.Fprintf(w, "  - Unique first names: %d\n", res.Stats.FirstCandidates)
	p.Fprintf(w, "  - Unique last names: %d\n", res.Stats.LastCandidates)
	p.Fprintf(w, "  - Ambiguous (both): %d\n", res.Stats.Ambiguous)
	fmt.Fprintln(w, "\nFinal lexicon:")
	p.Fprintf(w, "  - Total entries: %d\n", res.Stats.Entries)
	p.Fprintf(w, "  - Tagged as FirstName: %d\n", res.Stats.TaggedFirst)
	p.Fprintf(w, "  - Tagged as LastName: %d\n", res.Stats.TaggedLast)
	fmt.Fprintln(w, rule)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
