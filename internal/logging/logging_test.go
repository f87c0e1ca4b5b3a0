package logging

import "testing"

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warn", "error"} {
		logger, err := NewLogger(lvl)
		if err != nil {
			t.Fatalf("NewLogger(%q): %v", lvl, err)
		}
		_ = logger.Sync()
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("loud"); err == nil {
		t.Fatalf("expected error")
	}
}
