package logger

import (
	"errors"
	"testing"
)

func TestInitRejectsBadLevel(t *testing.T) {
	cfg := Log{LogLevel: "verbose", AppName: "emolog", ServiceName: "emolog"}

	if err := Init(cfg); err == nil {
		t.Fatal("expected an error for an unsupported log level")
	}
}

func TestInitRequiresNames(t *testing.T) {
	cfg := Log{LogLevel: "info", AppName: "emolog"}

	if err := Init(cfg); !errors.Is(err, ErrServiceNameIsEmpty) {
		t.Fatalf("got %v, want ErrServiceNameIsEmpty", err)
	}

	cfg = Log{LogLevel: "info", ServiceName: "emolog"}

	if err := Init(cfg); !errors.Is(err, ErrAppNameIsEmpty) {
		t.Fatalf("got %v, want ErrAppNameIsEmpty", err)
	}
}

func TestInitConsoleLogger(t *testing.T) {
	cfg := Log{
		LogLevel:    "info",
		AppName:     "emolog",
		ServiceName: "emolog",
		Console:     Console{Enabled: true},
	}

	if err := Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
}
