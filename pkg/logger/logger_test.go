package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_StampsServiceAndLevel(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	log := Init(Options{Level: "warn", Output: &buf, Service: "tracker"})

	log.Info().Msg("dropped")
	log.Warn().Str("job_id", "job-1").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "tracker" || line["job_id"] != "job-1" || line["message"] != "kept" {
		t.Errorf("unexpected line %v", line)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first := Init(Options{Level: "debug", Output: &bytes.Buffer{}})
	second := Init(Options{Level: "error", Output: &bytes.Buffer{}})

	if first.GetLevel() != second.GetLevel() || Get().GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected the first Init to win, got %v", Get().GetLevel())
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"DEBUG":     zerolog.DebugLevel,
		" warning ": zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"":          zerolog.InfoLevel,
		"verbose":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_DoesNotInstall(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	l := New(Options{Output: &buf, Service: "bootstrap"})
	l.Info().Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"service":"bootstrap"`)) {
		t.Errorf("unexpected output %q", buf.String())
	}
	defer func() {
		if recover() == nil {
			t.Error("New must not install the process-wide logger")
		}
	}()
	Get()
}
