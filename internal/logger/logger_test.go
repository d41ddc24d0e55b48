package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)
	return &loggerImpl{base: base, sugared: base.Sugar()}, logs
}

func TestWithAddsFieldsToChildOnly(t *testing.T) {
	parent, logs := observed()
	child := parent.With(String("component", "importer"))

	child.Info("imported")
	parent.Info("plain")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["component"]; got != "importer" {
		t.Errorf("child component = %v, want importer", got)
	}
	if _, ok := entries[1].ContextMap()["component"]; ok {
		t.Error("parent logger picked up the child's fields")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
	}
	for _, tt := range tests {
		lvl := parseLevel(tt.in)
		if lvl == nil || lvl.String() != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %s", tt.in, lvl, tt.want)
		}
	}
	if parseLevel("loud") != nil {
		t.Error("unknown level should keep the default")
	}
}
