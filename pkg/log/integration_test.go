package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	perrors "github.com/YuminosukeSato/housingeda/pkg/errors"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", StageKey, StageLoad)
	testLogger.Warn("warning message", FeaturesIgnoredKey, []string{"Nonexistent"})
	testErr := fmt.Errorf("test error")
	testLogger.Error("error message", testErr, StageKey, StageBaseline)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON unmarshaling converts numbers to float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrorKey, "test error") {
		t.Error("Leading error should be stored under the error key")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		RunIDKey, "run-001",
		ComponentKey, "Cleaner",
	)
	contextLogger.Info("Data cleaned", RowsKey, 1460)

	if !testLogger.ContainsField(RunIDKey, "run-001") {
		t.Error("Run id context not found")
	}
	if !testLogger.ContainsField(ComponentKey, "Cleaner") {
		t.Error("Component context not found")
	}
	if !testLogger.ContainsField(RowsKey, 1460.0) {
		t.Error("Rows field not found")
	}
}

// TestLoggerEnabled tests the Enabled method
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

// TestLoggerProviderIntegration tests the LoggerProvider interface
func TestLoggerProviderIntegration(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("Loader").Info("named logger message")

	out := buffer.String()
	for _, want := range []string{"provider test message", "named logger message", "Loader"} {
		if !strings.Contains(out, want) {
			t.Errorf("%q not found in provider output", want)
		}
	}

	provider.SetLevel(LevelError)
	provider.GetLogger().Info("suppressed")
	if strings.Contains(buffer.String(), "suppressed") {
		t.Error("SetLevel should raise the threshold of existing loggers")
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(LevelInfo, WithWriter(&buf))

	logger := provider.GetLoggerWithName("Pipeline").With(RunIDKey, "abc")
	logger.Debug("hidden")
	logger.Info("Data loaded", RowsKey, 3, ColumnsKey, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	want := map[string]interface{}{
		"level":      "info",
		"message":    "Data loaded",
		ComponentKey: "Pipeline",
		RunIDKey:     "abc",
		RowsKey:      3.0,
		ColumnsKey:   2.0,
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("field %s = %v, want %v", k, entry[k], v)
		}
	}

	provider.SetLevel(LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel should affect loggers already handed out")
	}
}

func TestZerologErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProvider(LevelDebug, WithWriter(&buf)).GetLogger()

	err := perrors.NewInvalidParameterError("cluster_homes", "k", "must be at least 2", 1)
	logger.Error("Clustering failed", err, StageKey, StageCluster)

	var entry map[string]interface{}
	if jerr := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); jerr != nil {
		t.Fatalf("record is not JSON: %v", jerr)
	}
	if entry[ErrorCodeKey] != perrors.CodeInvalidParameter {
		t.Errorf("error.code = %v, want %s", entry[ErrorCodeKey], perrors.CodeInvalidParameter)
	}
	if entry[StageKey] != StageCluster {
		t.Errorf("pipeline.stage = %v", entry[StageKey])
	}
	if s, _ := entry[ErrorKey].(string); !strings.Contains(s, "invalid parameter 'k'") {
		t.Errorf("error = %v", entry[ErrorKey])
	}
}

func TestInstallWarningHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProvider(LevelInfo, WithWriter(&buf)).GetLogger()
	var before []error
	perrors.SetZerologWarnFunc(func(w error) { before = append(before, w) })
	defer perrors.SetZerologWarnFunc(nil)

	restore := InstallWarningHandler(logger)
	perrors.Warn(perrors.NewIgnoredFeaturesWarning("train_baseline", []string{"Nonexistent"}))
	restore()
	perrors.Warn(perrors.NewIgnoredFeaturesWarning("cluster_homes", []string{"PoolArea"}))

	if len(before) != 1 {
		t.Errorf("restore should reinstate the previous handler, it got %d warnings", len(before))
	}
	if strings.Contains(buf.String(), "PoolArea") {
		t.Errorf("warning after restore leaked into logger: %s", buf.String())
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning not logged at warn level: %s", out)
	}
	if !strings.Contains(out, "IgnoredFeaturesWarning") {
		t.Errorf("warning object missing: %s", out)
	}
	if !strings.Contains(out, "Nonexistent") {
		t.Errorf("ignored feature missing: %s", out)
	}
}

func TestWarningOnTestLogger(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	Warning(logger.With(RunIDKey, "run-1"), perrors.NewConvergenceWarning("KMeans", 0, "few distinct points"))

	if !logger.ContainsField(WarningTypeKey, "ConvergenceWarning") {
		t.Error("warning type missing")
	}
	if !logger.ContainsField(RunIDKey, "run-1") {
		t.Error("logger fields missing")
	}

	logger.Clear()
	if entries, _ := logger.GetLogEntries(); len(entries) != 0 {
		t.Errorf("Clear should drop captured entries, got %v", entries)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestConcurrentLogging tests thread safety of logging
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	shared := testLogger.With(StageKey, StageReport)

	const numGoroutines, messagesPerGoroutine = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				shared.Info(fmt.Sprintf("goroutine %d message %d", id, j), "goroutine_id", id)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != numGoroutines*messagesPerGoroutine {
		t.Errorf("Expected %d log entries, got %d", numGoroutines*messagesPerGoroutine, len(entries))
	}
}

// BenchmarkLogging benchmarks logging performance
func BenchmarkLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := NewZerologProvider(LevelInfo, WithWriter(&buf)).GetLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationPredict,
			SamplesKey, 1000,
		)
	}
}
