package runtime

import (
	"errors"
	"io"
	"os"
	"strings"
)

// DefaultFuzzWarnThreshold is the accumulated fuzz above which a run logs a warning.
// Anything beyond trailing-whitespace tolerance on a handful of sections crosses it.
const DefaultFuzzWarnThreshold = 100

// RunnerOptions configures a Runner. The zero value is usable: it applies patches in
// the process working directory, logs warnings to stderr and warns on any fuzz.
type RunnerOptions struct {
	// WorkingDir is the root that relative patch paths resolve against.
	WorkingDir string
	// DryRun parses and materializes patches without writing anything.
	DryRun bool

	// FuzzWarnThreshold logs a warning when a patch needed more fuzz than this.
	// Zero warns on any fuzz and negative disables the warning. Callers wanting the
	// usual tolerance set DefaultFuzzWarnThreshold.
	FuzzWarnThreshold int
	// MaxFuzz rejects patches whose accumulated fuzz exceeds it. Zero means no limit.
	MaxFuzz int

	// LogLevel and LogWriter configure the default StdLogger. They are ignored when
	// Logger is set.
	LogLevel  LogLevel
	LogWriter io.Writer
	Logger    Logger

	Metrics Metrics
}

func (o *RunnerOptions) setDefaults() {
	o.WorkingDir = strings.TrimSpace(o.WorkingDir)
	if o.LogLevel == "" {
		o.LogLevel = LogLevelWarn
	}
	if o.LogWriter == nil {
		o.LogWriter = os.Stderr
	}
	if o.Logger == nil {
		o.Logger = NewStdLogger(o.LogLevel, o.LogWriter)
	}
	if o.Metrics == nil {
		o.Metrics = &NoOpMetrics{}
	}
}

func (o *RunnerOptions) validate() error {
	if o.MaxFuzz < 0 {
		return errors.New("max fuzz must not be negative")
	}
	if _, ok := logLevelRank[o.LogLevel]; !ok {
		return errors.New("unknown log level " + string(o.LogLevel))
	}
	return nil
}
