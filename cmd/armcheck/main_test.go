// cmd/armcheck/main_test.go
package main

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/config"
	"github.com/tamzrod/modbus-armcheck/internal/scenario"
	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	f := flags{
		scenario: "early_stop",
		index:    3,
		delayMs:  25,
		logLevel: "debug",
		set:      map[string]bool{"scenario": true, "index": true, "delay": true, "log-level": true},
	}
	if err := applyFlags(cfg, f); err != nil {
		t.Fatalf("err=%v", err)
	}
	sc := cfg.Armcheck.Scenario
	if sc.Kind != "early_stop" || sc.Index != 3 || sc.DelayMs != 25 || cfg.Armcheck.Log.Level != "debug" {
		t.Fatalf("got=%+v", cfg.Armcheck)
	}

	f = flags{index: 70000, set: map[string]bool{"index": true}}
	if err := applyFlags(config.Default(), f); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestApplyFlags_UnsetFlagsKeepConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Armcheck.Scenario = config.ScenarioConfig{Kind: "single", Index: 2}
	if err := applyFlags(cfg, flags{set: map[string]bool{}}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Armcheck.Scenario.Kind != "single" || cfg.Armcheck.Scenario.Index != 2 {
		t.Fatalf("config overwritten: %+v", cfg.Armcheck.Scenario)
	}
}

func TestPrintSummary(t *testing.T) {
	sum := scenario.Summary{
		Scenario: scenario.Scenario{Kind: scenario.KindUpTo, Index: 1},
		Attempts: []scenario.Attempt{
			{Index: 0, Class: subroutine.ClassCompleted},
			{Index: 1, Class: subroutine.ClassTimedOut, Err: errors.New("timeout waiting")},
		},
		Passed: 1,
		Failed: 1,
	}

	var out bytes.Buffer
	printSummary(&out, sum, 1500*time.Millisecond)
	s := out.String()
	if !strings.HasPrefix(s, "FAIL: run subroutines #0 through #1") {
		t.Fatalf("header: %q", s)
	}
	if !strings.Contains(s, "#1 timed-out: timeout waiting") || strings.Contains(s, "#0 completed") {
		t.Fatalf("attempt lines: %q", s)
	}
}

func TestRun_StatusErrorStartsNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Armcheck.Scenario.Kind = "single"
	cfg.Armcheck.Status = &config.StatusConfig{}
	config.Normalize(cfg)

	before := runtime.NumGoroutine()
	err := run(cfg)
	if err == nil || !strings.Contains(err.Error(), "status.endpoint") {
		t.Fatalf("expected status error, got %v", err)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Fatalf("goroutines left running: before=%d after=%d", before, after)
	}
}
