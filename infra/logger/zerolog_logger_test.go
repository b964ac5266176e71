package logger

import (
	"testing"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerJSONMode(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	l := New("sim")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Infof("step %d soc=%.3f", 10, 0.75)
}

func TestZerologLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	l := NewZerologLogger("sim")
	l.Debugf("visible at debug level")

	t.Setenv("LOG_LEVEL", "not-a-level")
	l = NewZerologLogger("sim")
	l.Infof("falls back to info on a bad level")
}
