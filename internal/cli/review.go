package cli

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/gitctx"
	"github.com/dshills/lamp/internal/github"
	"github.com/dshills/lamp/internal/history"
	"github.com/dshills/lamp/internal/ingest"
	"github.com/dshills/lamp/internal/output"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

// Review flags
var (
	flagModel         string
	flagMode          string
	flagFormat        string
	flagOut           string
	flagMaxFileBytes  string
	flagMaxTotalBytes string
	flagMaxTokens     int
	flagDryRun        bool
	flagForce         bool
	flagRedact        bool
	flagSummaryOnly   bool
	flagTracked       bool
	flagChanged       string
	flagInclude       []string
	flagExclude       []string
	flagGitHubPR      string
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagModel, "model", "", "OpenRouter model id")
	cmd.Flags().StringVar(&flagMode, "mode", "", "Review mode (standard, refactor)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, markdown, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagMaxFileBytes, "max-file-bytes", "", "Per-file size limit, e.g. 2MiB")
	cmd.Flags().StringVar(&flagMaxTotalBytes, "max-total-bytes", "", "Total size limit, e.g. 50MiB")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Estimated prompt token limit")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print the assembled prompt without calling the API")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Submit even when the token estimate exceeds the limit")
	cmd.Flags().BoolVar(&flagRedact, "redact", false, "Redact secrets from file contents before sending")
	cmd.Flags().BoolVar(&flagSummaryOnly, "summary-only", false, "Print only the executive summary (text format)")
	cmd.Flags().BoolVar(&flagTracked, "tracked", false, "In directories, review only files tracked by git")
	cmd.Flags().StringVar(&flagChanged, "changed", "", "In directories, review only files changed since this git revision")
	cmd.Flags().StringSliceVar(&flagInclude, "include", nil, "Glob patterns of directory files to include")
	cmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Glob patterns of directory files to exclude")
	cmd.Flags().StringVar(&flagGitHubPR, "github-pr", "", "Post the review to a pull request (owner/repo#N, or N for the origin repo)")
}

// selection controls which files of a directory argument are collected.
type selection struct {
	Tracked bool
	// Changed is a git revision; when set only files differing from it are kept.
	Changed string
	Filter  gitctx.Filter
}

func (s selection) git() bool {
	return s.Tracked || s.Changed != ""
}

func selectionFromFlags() selection {
	return selection{
		Tracked: flagTracked,
		Changed: flagChanged,
		Filter:  gitctx.Filter{Include: flagInclude, Exclude: flagExclude},
	}
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagMode != "" {
		m["mode"] = flagMode
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagMaxFileBytes != "" {
		m["maxFileBytes"] = flagMaxFileBytes
	}
	if flagMaxTotalBytes != "" {
		m["maxTotalBytes"] = flagMaxTotalBytes
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = strconv.Itoa(flagMaxTokens)
	}
	return m
}

// loadConfig resolves the effective config for commands that take review
// flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	if flagRedact {
		cfg.Privacy.RedactSecrets = true
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

var reviewCmd = &cobra.Command{
	Use:   "review <path>...",
	Short: "Review files, directories or zip archives",
	Long: "Review the given files in a single request. Directories are walked recursively " +
		"(hidden directories are skipped) and zip archives are expanded one level.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		uploads, err := collectUploads(cmd.Context(), args, cfg.Extensions, selectionFromFlags())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		log().Debug("collected uploads", zap.Int("count", len(uploads)))
		if !providers.IsKnownModel(cfg.Model) {
			log().Info("model is not in the built-in catalogue; OpenRouter will validate it", zap.String("model", cfg.Model))
		}

		runReview(cmd.Context(), cfg, review.Request{Uploads: uploads, Force: flagForce})
		return nil
	},
}

func init() {
	addReviewFlags(reviewCmd)
}

func newClient(cfg config.Config) *providers.OpenRouter {
	return providers.NewOpenRouter(providers.Options{
		BaseURL: cfg.BaseURL,
		Referer: cfg.Referer,
		Title:   cfg.Title,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:  log(),
	})
}

// openHistory opens the history store when enabled. Failures are logged and
// yield nil so that a broken history file never blocks a review.
func openHistory(cfg config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	p, err := config.HistoryPath(cfg)
	if err != nil {
		log().Warn("history disabled", zap.Error(err))
		return nil
	}
	store, err := history.Open(p)
	if err != nil {
		log().Warn("history disabled", zap.String("path", p), zap.Error(err))
		return nil
	}
	return store
}

func runReview(ctx context.Context, cfg config.Config, req review.Request) {
	opts := []review.Option{review.WithLogger(log())}
	if !flagDryRun {
		if store := openHistory(cfg); store != nil {
			defer store.Close()
			opts = append(opts, review.WithHistory(store))
		}
	}
	eng := review.NewEngine(cfg, newClient(cfg), opts...)

	if flagDryRun {
		p, err := eng.Prepare(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return
		}
		if err := writePrepared(p, cfg.Format); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		if !p.Valid {
			exitCode = ExitPayloadTooLarge
		}
		return
	}

	out, err := eng.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.Retryable(err) {
			fmt.Fprintln(os.Stderr, "The request did not reach the model; it is safe to try again.")
		}
		exitCode = exitCodeFor(err)
		return
	}
	if out.Warning != "" {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", out.Warning)
	}

	outOpts := output.Options{
		SummaryOnly: flagSummaryOnly,
		Render:      flagOut == "" && isTerminal(os.Stdout),
	}
	if err := output.WriteReport(out, cfg.Format, flagOut, outOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if flagOut != "" {
		fmt.Fprintf(os.Stderr, "Review written to %s\n", flagOut)
	}

	if flagGitHubPR != "" {
		if err := publishReview(ctx, out, flagGitHubPR); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting to GitHub: %v\n", err)
			exitCode = ExitRuntimeError
		}
	}
}

// publishReview posts the markdown report as a pull request comment.
func publishReview(ctx context.Context, out *review.Outcome, ref string) error {
	gh, err := github.NewClient()
	if err != nil {
		return err
	}
	var fallback string
	if !strings.Contains(ref, "#") {
		if fallback, err = github.DetectRepo(ctx, "."); err != nil {
			return err
		}
	}
	target, err := github.ParseTarget(ref, fallback)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := (&output.MarkdownWriter{}).Write(&buf, out); err != nil {
		return err
	}
	comment, err := gh.PostComment(ctx, target, buf.String())
	if err != nil {
		return err
	}
	log().Info("review posted", zap.String("target", target.String()), zap.Int64("comment_id", comment.ID))
	fmt.Fprintf(os.Stderr, "Review posted to %s: %s\n", target, comment.HTMLURL)
	return nil
}

func writePrepared(p *review.Prepared, format string) error {
	if flagOut == "" {
		return output.WritePrepared(os.Stdout, p, format)
	}
	f, err := os.Create(flagOut)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return output.WritePrepared(f, p, format)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// collectUploads reads the named paths. Files are taken as given. Directories
// contribute files with an allowed extension or a .zip archive, either from a
// walk that skips hidden directories or, when sel asks for it, from git.
func collectUploads(ctx context.Context, paths []string, extensions []string, sel selection) ([]ingest.Upload, error) {
	allowed := make(map[string]bool)
	if len(extensions) == 0 {
		extensions = ingest.DefaultExtensions
	}
	for _, e := range extensions {
		allowed[strings.ToLower(e)] = true
	}
	allowed[".zip"] = true
	keep := func(rel string) bool {
		return allowed[strings.ToLower(path.Ext(rel))] && sel.Filter.Keep(rel)
	}

	var uploads []ingest.Upload
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, ingest.Upload{Name: uploadName(p), Data: data})
			continue
		}

		var found []ingest.Upload
		if sel.git() {
			found, err = collectGit(ctx, p, sel, keep)
		} else {
			found, err = collectWalk(p, keep)
		}
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, found...)
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files found in %s", strings.Join(paths, ", "))
	}
	return uploads, nil
}

func collectWalk(dir string, keep func(string) bool) ([]ingest.Upload, error) {
	var uploads []ingest.Upload
	err := filepath.WalkDir(dir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if fp != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, fp)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !keep(rel) {
			return nil
		}
		data, err := os.ReadFile(fp)
		if err != nil {
			return err
		}
		uploads = append(uploads, ingest.Upload{Name: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return uploads, nil
}

func collectGit(ctx context.Context, dir string, sel selection, keep func(string) bool) ([]ingest.Upload, error) {
	if !gitctx.IsRepo(ctx, dir) {
		return nil, fmt.Errorf("%s: %w: --tracked and --changed need a git work tree", dir, gitctx.ErrNotRepo)
	}
	meta, err := gitctx.GetRepoMeta(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	log().Debug("collecting from git",
		zap.String("root", meta.Root),
		zap.String("branch", meta.Branch),
		zap.String("head", meta.Head))

	var files []string
	if sel.Changed != "" {
		files, err = gitctx.ChangedFiles(ctx, dir, sel.Changed, sel.Filter)
	} else {
		files, err = gitctx.TrackedFiles(ctx, dir, sel.Filter)
	}
	if err != nil {
		return nil, err
	}

	var uploads []ingest.Upload
	for _, rel := range files {
		if !keep(rel) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, ingest.Upload{Name: rel, Data: data})
	}
	return uploads, nil
}

// uploadName keeps relative paths readable and reduces anything else to the
// base name so absolute paths never reach the prompt.
func uploadName(p string) string {
	if filepath.IsLocal(p) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	return filepath.Base(p)
}
