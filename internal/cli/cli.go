package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/asynkron/applypatch/internal/core/runtime"
	"github.com/asynkron/applypatch/internal/tui"
	"github.com/asynkron/applypatch/pkg/patch"
)

const usage = `Usage: applypatch [command] [flags]

Commands:
  apply    apply a patch to the working directory (default)
  check    resolve a patch without writing anything
  files    list the paths a patch reads and creates
  diff     render a patch between two snapshots: diff <orig.json|yaml> <dest.json|yaml>
  import   convert a git unified diff into a patch: import [file.diff]

apply, check and files read the patch from -patch <file>, -clipboard or stdin.
`

// reviewFunc and readClipboard are swapped in tests so no terminal program or
// clipboard is touched.
var (
	reviewFunc    = tui.Review
	readClipboard = clipboard.ReadAll
)

// Run executes the applypatch command line using the provided arguments.
// It returns a POSIX-style exit code: 0 on success, 1 on failure and 2 on
// usage errors.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	command := "apply"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	c := &commandContext{stdin: stdin, stdout: stdout, stderr: stderr, styles: newStyles(stdout)}
	switch command {
	case "apply":
		return c.apply(ctx, args)
	case "check":
		return c.check(ctx, args)
	case "files":
		return c.files(args)
	case "diff":
		return c.diff(args)
	case "import":
		return c.importDiff(ctx, args)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

type commandContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	styles styles
}

// runnerFlags are shared by every command that resolves a patch against a workspace.
type runnerFlags struct {
	workDir  *string
	logLevel *string
	fuzzWarn *int
	maxFuzz  *int
	input    *inputFlags
}

// inputFlags select where the patch text comes from.
type inputFlags struct {
	patchPath *string
	clipboard *bool
}

func registerInputFlags(flagSet *flag.FlagSet) *inputFlags {
	return &inputFlags{
		patchPath: flagSet.String("patch", "", "read the patch from this file instead of stdin"),
		clipboard: flagSet.Bool("clipboard", false, "read the patch from the system clipboard"),
	}
}

func (c *commandContext) newFlagSet(name string) *flag.FlagSet {
	flagSet := flag.NewFlagSet("applypatch "+name, flag.ContinueOnError)
	flagSet.SetOutput(c.stderr)
	return flagSet
}

func (c *commandContext) registerRunnerFlags(flagSet *flag.FlagSet) (*runnerFlags, error) {
	fuzzWarn, err := envInt("APPLYPATCH_FUZZ_WARN", runtime.DefaultFuzzWarnThreshold)
	if err != nil {
		return nil, err
	}
	maxFuzz, err := envInt("APPLYPATCH_MAX_FUZZ", 0)
	if err != nil {
		return nil, err
	}
	logLevel := os.Getenv("APPLYPATCH_LOG_LEVEL")
	if logLevel == "" {
		logLevel = string(runtime.LogLevelWarn)
	}

	return &runnerFlags{
		workDir:  flagSet.String("C", os.Getenv("APPLYPATCH_WORKDIR"), "resolve patch paths against this directory"),
		logLevel: flagSet.String("log-level", logLevel, "log level (debug, info, warn, error)"),
		fuzzWarn: flagSet.Int("fuzz-warn", fuzzWarn, "warn when the accumulated fuzz exceeds this value (negative disables)"),
		maxFuzz:  flagSet.Int("max-fuzz", maxFuzz, "reject patches whose accumulated fuzz exceeds this value (0 means no limit)"),
		input:    registerInputFlags(flagSet),
	}, nil
}

func (f *runnerFlags) options(stderr io.Writer) (runtime.RunnerOptions, error) {
	level, err := runtime.ParseLogLevel(*f.logLevel)
	if err != nil {
		return runtime.RunnerOptions{}, err
	}
	return runtime.RunnerOptions{
		WorkingDir:        *f.workDir,
		FuzzWarnThreshold: *f.fuzzWarn,
		MaxFuzz:           *f.maxFuzz,
		LogLevel:          level,
		LogWriter:         stderr,
	}, nil
}

func (c *commandContext) parse(flagSet *flag.FlagSet, args []string) (int, bool) {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func (c *commandContext) apply(ctx context.Context, args []string) int {
	flagSet := c.newFlagSet("apply")
	rf, err := c.registerRunnerFlags(flagSet)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}
	dryRun := flagSet.Bool("dry-run", false, "resolve the patch and print the summary without writing files")
	review := flagSet.Bool("review", false, "show the resolved changes and ask for confirmation before writing")
	markdown := flagSet.Bool("markdown", false, "print the report as markdown")
	if code, ok := c.parse(flagSet, args); !ok {
		return code
	}
	if *review && !isFilePath(*rf.input.patchPath) && !*rf.input.clipboard {
		fmt.Fprintln(c.stderr, "-review needs -patch <file> or -clipboard because stdin is used for confirmation")
		return 2
	}
	if *review && !interactive(c.stdin) {
		fmt.Fprintln(c.stderr, "-review needs an interactive terminal")
		return 2
	}

	options, err := rf.options(c.stderr)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}
	options.DryRun = *dryRun
	runner, err := runtime.NewRunner(options)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to create runner: %v\n", err)
		return 1
	}

	text, err := c.readPatch(rf.input)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}

	var report *runtime.Report
	if *review {
		report, err = runner.Check(ctx, text)
		if err != nil {
			return c.fail(err)
		}
		approved, err := reviewFunc(ctx, report)
		if err != nil {
			return c.fail(err)
		}
		if !approved {
			fmt.Fprintln(c.stdout, c.styles.muted.Render("Patch not applied."))
			return 1
		}
		if err := runner.ApplyReport(ctx, report); err != nil {
			return c.fail(err)
		}
	} else {
		report, err = runner.Run(ctx, text)
		if err != nil {
			return c.fail(err)
		}
	}

	if *markdown {
		fmt.Fprint(c.stdout, tui.ReportMarkdown(report))
		return 0
	}
	title := "Applied patch"
	if !report.Applied {
		title = "Dry run, no files written"
	}
	c.printSummary(title, report)
	return 0
}

func (c *commandContext) check(ctx context.Context, args []string) int {
	flagSet := c.newFlagSet("check")
	rf, err := c.registerRunnerFlags(flagSet)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}
	markdown := flagSet.Bool("markdown", false, "print the report as markdown")
	if code, ok := c.parse(flagSet, args); !ok {
		return code
	}

	options, err := rf.options(c.stderr)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}
	runner, err := runtime.NewRunner(options)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to create runner: %v\n", err)
		return 1
	}
	text, err := c.readPatch(rf.input)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}

	report, err := runner.Check(ctx, text)
	if err != nil {
		return c.fail(err)
	}
	if *markdown {
		fmt.Fprint(c.stdout, tui.ReportMarkdown(report))
		return 0
	}
	c.printSummary("Patch OK", report)
	return 0
}

func (c *commandContext) files(args []string) int {
	flagSet := c.newFlagSet("files")
	input := registerInputFlags(flagSet)
	if code, ok := c.parse(flagSet, args); !ok {
		return code
	}
	text, err := c.readPatch(input)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}

	for _, path := range patch.FilesReferenced(text) {
		fmt.Fprintf(c.stdout, "%s %s\n", c.styles.muted.Render("read"), path)
	}
	for _, path := range patch.FilesAdded(text) {
		fmt.Fprintf(c.stdout, "%s %s\n", c.styles.status("A"), path)
	}
	return 0
}

func (c *commandContext) diff(args []string) int {
	flagSet := c.newFlagSet("diff")
	if code, ok := c.parse(flagSet, args); !ok {
		return code
	}
	if flagSet.NArg() != 2 {
		fmt.Fprintf(c.stderr, "diff expects two snapshot files\n\n%s", usage)
		return 2
	}

	snapshots := make([]map[string]string, 0, 2)
	for _, name := range flagSet.Args() {
		raw, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(c.stderr, "failed to read snapshot: %v\n", err)
			return 1
		}
		decode := runtime.DecodeSnapshot
		if ext := strings.ToLower(filepath.Ext(name)); ext == ".yaml" || ext == ".yml" {
			decode = runtime.DecodeSnapshotYAML
		}
		files, err := decode(raw)
		if err != nil {
			fmt.Fprintf(c.stderr, "%s: %v\n", name, err)
			return 1
		}
		snapshots = append(snapshots, files)
	}

	commit, err := patch.DiffSnapshots(snapshots[0], snapshots[1])
	if err != nil {
		return c.fail(err)
	}
	return c.render(commit)
}

func (c *commandContext) importDiff(ctx context.Context, args []string) int {
	flagSet := c.newFlagSet("import")
	workDir := flagSet.String("C", os.Getenv("APPLYPATCH_WORKDIR"), "read original files from this directory")
	if code, ok := c.parse(flagSet, args); !ok {
		return code
	}
	if flagSet.NArg() > 1 {
		fmt.Fprintf(c.stderr, "import expects at most one diff file\n\n%s", usage)
		return 2
	}

	text, err := c.readInput(flagSet.Arg(0))
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	ws, err := patch.NewFilesystemWorkspace(*workDir)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	commit, err := runtime.ImportUnifiedDiff(ctx, text, ws)
	if err != nil {
		return c.fail(err)
	}
	return c.render(commit)
}

func (c *commandContext) render(commit *patch.Commit) int {
	text, err := patch.RenderPatch(commit)
	if err != nil {
		return c.fail(err)
	}
	if c.styles.color {
		if err := highlightPatch(c.stdout, text); err == nil {
			return 0
		}
	}
	fmt.Fprint(c.stdout, text)
	return 0
}

func (c *commandContext) printSummary(title string, report *runtime.Report) {
	fmt.Fprintf(c.stdout, "%s %s\n", c.styles.title.Render(title), c.styles.muted.Render(fmt.Sprintf("(fuzz %d)", report.Result.Fuzz)))
	for _, file := range report.Result.Files {
		line := fmt.Sprintf("%s %s", c.styles.status(file.Status), file.Path)
		if file.MovePath != "" {
			line += " -> " + file.MovePath
		}
		fmt.Fprintln(c.stdout, line)
	}
	if report.FuzzWarning {
		fmt.Fprintln(c.stdout, c.styles.warn.Render("warning: context matched only approximately"))
	}
}

func (c *commandContext) fail(err error) int {
	fmt.Fprintf(c.stderr, "%s %s\n", c.styles.errLabel.Render("error:"), patch.FormatError(err))
	return 1
}

func (c *commandContext) readPatch(input *inputFlags) (string, error) {
	if *input.clipboard {
		if isFilePath(*input.patchPath) {
			return "", errors.New("-clipboard and -patch are mutually exclusive")
		}
		content, err := readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read from clipboard: %w", err)
		}
		if strings.TrimSpace(content) == "" {
			return "", errors.New("clipboard is empty")
		}
		return content, nil
	}
	return c.readInput(*input.patchPath)
}

func (c *commandContext) readInput(path string) (string, error) {
	if isFilePath(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
	if c.stdin == nil {
		return "", errors.New("no input: pass -patch <file> or pipe the patch on stdin")
	}
	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// interactive reports false only for an *os.File that is not a terminal. Other
// readers are assumed to be driven by the caller.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isFilePath(path string) bool {
	path = strings.TrimSpace(path)
	return path != "" && path != "-"
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

type styles struct {
	color    bool
	title    lipgloss.Style
	muted    lipgloss.Style
	warn     lipgloss.Style
	errLabel lipgloss.Style
	added    lipgloss.Style
	deleted  lipgloss.Style
	modified lipgloss.Style
}

// newStyles binds the styles to w so colors are only emitted on terminals that
// support them (and never when NO_COLOR is set).
func newStyles(w io.Writer) styles {
	profile := termenv.NewOutput(w).EnvColorProfile()
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(profile)
	return styles{
		color:    profile != termenv.Ascii,
		title:    renderer.NewStyle().Bold(true),
		muted:    renderer.NewStyle().Foreground(lipgloss.Color("244")),
		warn:     renderer.NewStyle().Foreground(lipgloss.Color("214")),
		errLabel: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		added:    renderer.NewStyle().Foreground(lipgloss.Color("42")),
		deleted:  renderer.NewStyle().Foreground(lipgloss.Color("196")),
		modified: renderer.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (s styles) status(code string) string {
	switch code {
	case "A":
		return s.added.Render(code)
	case "D":
		return s.deleted.Render(code)
	default:
		return s.modified.Render(code)
	}
}
