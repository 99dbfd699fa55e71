package runtime

import (
	"os"
	"testing"
)

func TestRunnerOptionsSetDefaults(t *testing.T) {
	t.Parallel()

	opts := RunnerOptions{WorkingDir: "  ./repo  "}
	opts.setDefaults()
	if opts.WorkingDir != "./repo" {
		t.Fatalf("expected trimmed working dir, got %q", opts.WorkingDir)
	}
	if opts.FuzzWarnThreshold != 0 {
		t.Fatalf("expected zero fuzz threshold to be kept, got %d", opts.FuzzWarnThreshold)
	}
	if opts.LogLevel != LogLevelWarn {
		t.Fatalf("expected WARN log level, got %q", opts.LogLevel)
	}
	if opts.LogWriter != os.Stderr {
		t.Fatalf("expected stderr log writer")
	}
	if _, ok := opts.Logger.(*StdLogger); !ok {
		t.Fatalf("expected a StdLogger, got %T", opts.Logger)
	}
	if _, ok := opts.Metrics.(*NoOpMetrics); !ok {
		t.Fatalf("expected NoOpMetrics, got %T", opts.Metrics)
	}
	if err := opts.validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRunnerOptionsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	logger := &NoOpLogger{}
	opts := RunnerOptions{FuzzWarnThreshold: -1, LogLevel: LogLevelDebug, Logger: logger}
	opts.setDefaults()
	if opts.FuzzWarnThreshold != -1 {
		t.Fatalf("expected disabled fuzz warning to be kept, got %d", opts.FuzzWarnThreshold)
	}
	if opts.Logger != logger {
		t.Fatalf("expected injected logger to be kept")
	}
}
