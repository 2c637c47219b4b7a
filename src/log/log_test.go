package log_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-logr/logr/funcr"

	"chatbotrag/src/log"
)

func TestConfigure(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		wantErr     bool
	}{
		{name: "production info", level: "info"},
		{name: "development debug", level: "debug", development: true},
		{name: "unknown level", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := log.Configure(tt.level, tt.development)
			if (err != nil) != tt.wantErr {
				t.Errorf("Configure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatermillAdapter(t *testing.T) {
	var lines []string
	log.SetLogger(funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{}))

	a := log.NewWatermillAdapter("jobs").With(watermill.LogFields{"topic": "jobs"})
	a.Info("message received", watermill.LogFields{"b": 2, "a": 1})
	a.Error("handler failed", errors.New("boom"), nil)
	a.Debug("hidden at verbosity 0", nil)

	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %v", len(lines), lines)
	}
	want := `jobs "level"=0 "msg"="message received" "topic"="jobs" "a"=1 "b"=2`
	if lines[0] != want {
		t.Errorf("info line = %s, want %s", lines[0], want)
	}
}
