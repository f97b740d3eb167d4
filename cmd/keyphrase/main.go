package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/keyphrase/pkg/keyphrase"
	"github.com/cognicore/keyphrase/pkg/keyphrase/config"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "keyphrase",
		Usage: "Extract document keywords and search documents by keyword similarity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration",
				Value:   "keyphrase.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Store backend (sqlite, badger, memory), overrides the configuration",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Store path, overrides the configuration",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Print the keywords of a text",
				ArgsUsage: "[text...]",
				Action:    extractCommand,
				Flags:     []cli.Flag{fileFlag()},
			},
			{
				Name:      "add",
				Usage:     "Extract keywords from files, or from text with --label, and store them",
				ArgsUsage: "[file...] | --label <label> [text...]",
				Action:    addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "label",
						Usage: "Store the argument text or standard input under this label",
					},
				},
			},
			{
				Name:      "relevant",
				Usage:     "Find stored documents relevant to a text",
				ArgsUsage: "[text...]",
				Action:    relevantCommand,
				Flags: []cli.Flag{
					fileFlag(),
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity (default: similarity.relevant_threshold)",
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of results (default: similarity.max_results)",
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Show a stored document",
				ArgsUsage: "<id>",
				Action:    getCommand,
			},
			{
				Name:   "list",
				Usage:  "List stored documents",
				Action: listCommand,
			},
			{
				Name:  "search",
				Usage: "Search stored documents",
				Subcommands: []*cli.Command{
					{
						Name:      "keyword",
						Usage:     "Documents containing a keyword",
						ArgsUsage: "<keyword>",
						Action:    searchKeywordCommand,
					},
					{
						Name:      "similar",
						Usage:     "Documents whose keywords resemble the given ones",
						ArgsUsage: "<keyword...>",
						Action:    searchSimilarCommand,
						Flags: []cli.Flag{
							&cli.Float64Flag{
								Name:  "threshold",
								Usage: "Minimum similarity",
								Value: 0.3,
							},
						},
					},
					{
						Name:      "fuzzy",
						Usage:     "Documents sharing at least --min keywords",
						ArgsUsage: "<keyword...>",
						Action:    searchFuzzyCommand,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "min",
								Usage: "Minimum number of shared keywords",
								Value: 1,
							},
						},
					},
					{
						Name:      "label",
						Usage:     "Documents by label",
						ArgsUsage: "<label>",
						Action:    searchLabelCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "exact",
								Usage: "Match the whole label",
							},
						},
					},
				},
			},
			{
				Name:      "update",
				Usage:     "Change the keywords or label of a document",
				ArgsUsage: "<id>",
				Action:    updateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "keywords",
						Usage: "Comma-separated replacement keywords",
					},
					&cli.StringFlag{
						Name:  "label",
						Usage: "Replacement label",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a document",
				ArgsUsage: "<id>",
				Action:    deleteCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show keyword frequencies across stored documents",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Show only the N most frequent keywords (0 for all)",
						Value: 20,
					},
				},
			},
		},
	}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Read the text from a file (.txt, .md, .html, .docx)",
	}
}

func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return config.LoadDotEnv(c.StringSlice("env-file")...)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// openEngine loads the configuration, applies flag overrides and builds the
// engine with its store.
func openEngine(c *cli.Context) (*keyphrase.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := c.String("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v := c.String("db"); v != "" {
		cfg.Store.Path = v
	}

	loader := &config.Loader{Config: cfg, Logger: slog.Default()}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if _, err := loader.LoadStore(c.Context, comp); err != nil {
		comp.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := keyphrase.OptionsFrom(comp, cfg)
	opts.Logger = slog.Default().With("component", "engine")
	return keyphrase.New(opts), nil
}

// inputText returns the text of --file, the joined arguments, or standard
// input, in that order of preference.
func inputText(c *cli.Context, engine *keyphrase.Engine) (string, error) {
	if path := c.String("file"); path != "" {
		return engine.ReadFile(c.Context, path)
	}
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no input text: pass it as arguments, --file or on stdin")
	}
	return string(data), nil
}

func parseID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one document id")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", c.Args().First())
	}
	return id, nil
}

func extractCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	text, err := inputText(c, engine)
	if err != nil {
		return err
	}

	keywords, err := engine.Extract(c.Context, text)
	if err != nil {
		return err
	}
	for _, kw := range keywords {
		fmt.Fprintf(c.App.Writer, "%.3f\t%s\n", kw.Score, kw.Text)
	}
	return nil
}

func addCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if label := c.String("label"); label != "" {
		text, err := inputText(c, engine)
		if err != nil {
			return err
		}
		report, err := engine.AddDocument(c.Context, label, text)
		if err != nil {
			return err
		}
		printReport(c.App.Writer, report)
		return nil
	}

	if c.NArg() == 0 {
		return fmt.Errorf("no files given (use --label to read standard input)")
	}
	failed := 0
	for _, path := range c.Args().Slice() {
		report, err := engine.AddFile(c.Context, path)
		if err != nil {
			failed++
			slog.Error("add failed", "path", path, "err", err)
			continue
		}
		printReport(c.App.Writer, report)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files not added", failed, c.NArg())
	}
	return nil
}

func printReport(w io.Writer, r keyphrase.AddReport) {
	fmt.Fprintf(w, "added #%d %q: %d keywords (%s) trace=%s\n",
		r.ID, r.Label, r.KeywordCount, strings.Join(r.TopKeywords, ", "), r.TraceID)
}

func relevantCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	text, err := inputText(c, engine)
	if err != nil {
		return err
	}

	threshold, maxResults := -1.0, 0
	if c.IsSet("threshold") {
		threshold = c.Float64("threshold")
	}
	if c.IsSet("max") {
		maxResults = c.Int("max")
	}
	hits, err := engine.RelevantDocumentsWith(c.Context, text, threshold, maxResults)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(c.App.Writer, "no relevant documents")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(c.App.Writer, "%.3f\t#%d\t%s\n", h.Similarity, h.ID, h.Label)
	}
	return nil
}

func getCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, ok, err := engine.Store().Get(c.Context, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %d: %w", id, internalerr.ErrNotFound)
	}
	printDocument(c.App.Writer, doc)
	return nil
}

func listCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Store().All(c.Context)
	if err != nil {
		return err
	}
	printDocuments(c.App.Writer, docs)
	return nil
}

func searchKeywordCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one keyword")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Store().SearchByKeyword(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	printDocuments(c.App.Writer, docs)
	return nil
}

func searchSimilarCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one keyword")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Store().SearchBySimilarity(c.Context, c.Args().Slice(), c.Float64("threshold"), engine.Scorer())
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(c.App.Writer, "%.3f\t", h.Similarity)
		printDocument(c.App.Writer, h.Document)
	}
	return nil
}

func searchFuzzyCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one keyword")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Store().SearchByFuzzy(c.Context, c.Args().Slice(), c.Int("min"))
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(c.App.Writer, "%d\t", h.Matches)
		printDocument(c.App.Writer, h.Document)
	}
	return nil
}

func searchLabelCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one label")
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Store().SearchByLabel(c.Context, c.Args().First(), c.Bool("exact"))
	if err != nil {
		return err
	}
	printDocuments(c.App.Writer, docs)
	return nil
}

func updateCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if !c.IsSet("keywords") && !c.IsSet("label") {
		return fmt.Errorf("nothing to change: pass --keywords or --label")
	}
	var keywords []string
	if c.IsSet("keywords") {
		keywords = splitKeywords(c.String("keywords"))
		if len(keywords) == 0 {
			return fmt.Errorf("--keywords must name at least one keyword")
		}
	}
	var label *string
	if c.IsSet("label") {
		l := strings.TrimSpace(c.String("label"))
		if l == "" {
			return fmt.Errorf("--label must not be empty")
		}
		label = &l
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ok, err := engine.Store().Update(c.Context, id, keywords, label)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %d: %w", id, internalerr.ErrNotFound)
	}
	fmt.Fprintf(c.App.Writer, "updated #%d\n", id)
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ok, err := engine.Store().Delete(c.Context, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %d: %w", id, internalerr.ErrNotFound)
	}
	fmt.Fprintf(c.App.Writer, "deleted #%d\n", id)
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Store().KeywordStats(c.Context)
	if err != nil {
		return err
	}
	if top := c.Int("top"); top > 0 && len(stats) > top {
		stats = stats[:top]
	}
	for _, s := range stats {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", s.Count, s.Keyword)
	}
	return nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func printDocument(w io.Writer, d store.Document) {
	fmt.Fprintf(w, "#%d\t%s\t%s\n", d.ID, d.Label, strings.Join(d.Keywords, ", "))
}

func printDocuments(w io.Writer, docs []store.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "no documents")
		return
	}
	for _, d := range docs {
		printDocument(w, d)
	}
}
