// cmd/armcheck/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-armcheck/internal/arm"
	"github.com/tamzrod/modbus-armcheck/internal/config"
	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/poller"
	"github.com/tamzrod/modbus-armcheck/internal/prompt"
	"github.com/tamzrod/modbus-armcheck/internal/scenario"
	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
	"github.com/tamzrod/modbus-armcheck/internal/writer"
)

type flags struct {
	configPath string
	scenario   string
	index      uint
	delayMs    int
	logLevel   string
	set        map[string]bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "YAML config file (default: built-in simulation)")
	flag.StringVar(&f.scenario, "scenario", "", "scenario kind: single, up_to, out_of_bounds, early_stop, early_stop_up_to, early_stop_sweep")
	flag.UintVar(&f.index, "index", 0, "subroutine index, or last index for up_to kinds")
	flag.IntVar(&f.delayMs, "delay", 0, "early-stop delay after enable (ms)")
	flag.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flag.Parse()

	f.set = map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f
}

func main() {
	f := parseFlags()

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if f.configPath != "" {
		var err error
		cfg, err = config.Load(f.configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}

	if err := applyFlags(cfg, f); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if err := run(cfg); err != nil {
		log.Fatalf("armcheck: %v", err)
	}
}

// applyFlags lets the command line override the configured scenario.
func applyFlags(cfg *config.Config, f flags) error {
	a := &cfg.Armcheck
	if f.set["scenario"] {
		a.Scenario.Kind = f.scenario
	}
	if f.set["index"] {
		if f.index > math.MaxUint16 {
			return fmt.Errorf("index %d out of range", f.index)
		}
		a.Scenario.Index = uint16(f.index)
	}
	if f.set["delay"] {
		a.Scenario.DelayMs = f.delayMs
	}
	if f.set["log-level"] {
		a.Log.Level = f.logLevel
	}
	return nil
}

func run(cfg *config.Config) error {
	a := &cfg.Armcheck

	level, err := logging.ParseLevel(a.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, logging.Format(a.Log.Format))

	// --------------------
	// Build the pipeline
	// --------------------

	m, err := arm.MapFromConfig(a.AddressMap)
	if err != nil {
		return err
	}
	p, err := poller.Build(a.Timing)
	if err != nil {
		return err
	}
	sc, haveScenario, err := scenario.FromConfig(a.Scenario)
	if err != nil {
		return err
	}
	if !haveScenario && !prompt.Interactive(os.Stdin) {
		return errors.New("no scenario configured and stdin is not a terminal")
	}

	// Status publisher (optional)
	var pub *writer.Publisher
	plan, statusEnabled, err := writer.BuildStatusPlan(a.Status)
	if err != nil {
		return err
	}
	if statusEnabled {
		cli, err := writer.BuildEndpointClient(a.Status)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		defer cli.Close()

		sw, err := writer.NewStatusWriter(plan, cli)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		pub = writer.NewPublisher(sw, logger)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	b, closeBus, err := openBus(gctx, g, a, m, logger)
	if err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("device: %w", err)
	}
	defer closeBus()

	facade := arm.New(b, m)
	ctl := subroutine.New(facade, p, subroutine.ConfigFromTiming(a.Timing), logger)

	opts := scenario.OptionsFromConfig(a.Sweep, a.Policy)
	if pub != nil {
		pub.Announce()
		opts.Observers = append(opts.Observers, pub)
	}

	drv := scenario.New(ctl, facade, opts, logger)

	logger.Info("armcheck ready",
		"driver", a.Device.Driver,
		"variant", a.AddressMap.Variant,
		"enable_coil", m.EnableCoil,
		"running", fmt.Sprintf("%s %d", m.RunningKind, m.RunningAddr),
		"index_register", m.IndexRegister,
	)

	// --------------------
	// Scenario session
	// --------------------

	g.Go(func() error {
		// ending the session stops the simulated arm
		defer cancel()

		if haveScenario {
			execute(gctx, drv, sc, os.Stdout, logger)
			return nil
		}

		pr := prompt.New(os.Stdin, os.Stdout)
		for gctx.Err() == nil {
			sc, err := pr.Scenario()
			if errors.Is(err, prompt.ErrQuit) {
				return nil
			}
			if err != nil {
				return err
			}
			execute(gctx, drv, sc, os.Stdout, logger)
			if !pr.Again() {
				return nil
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// execute runs one scenario and prints its summary. Attempt failures are
// reported, not returned.
func execute(ctx context.Context, drv *scenario.Driver, sc scenario.Scenario, out io.Writer, logger *slog.Logger) {
	start := time.Now()
	sum, err := drv.Execute(ctx, sc)
	printSummary(out, sum, time.Since(start))

	switch {
	case err == nil:
	case errors.Is(err, scenario.ErrSweepExhausted):
		fmt.Fprintln(out, "  sweep ended without a too-late delay; raise sweep.max_iterations")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "  interrupted")
	default:
		logger.Error("scenario error", "error", err)
	}
}

func printSummary(w io.Writer, sum scenario.Summary, took time.Duration) {
	verdict := "PASS"
	if !sum.OK() {
		verdict = "FAIL"
	}
	fmt.Fprintf(w, "%s: %s (%d attempts in %v)\n", verdict, sum.Scenario, len(sum.Attempts), took.Round(time.Millisecond))
	fmt.Fprintf(w, "  passed=%d failed=%d stopped_early=%d too_late=%d\n",
		sum.Passed, sum.Failed, sum.StoppedEarly, sum.TooLate)

	for _, at := range sum.Attempts {
		if at.Err == nil && at.Class != subroutine.ClassTooLate {
			continue
		}
		line := fmt.Sprintf("  #%d %s", at.Index, at.Class)
		if at.Cancel {
			line += fmt.Sprintf(" delay=%v", at.Delay)
		}
		if at.Err != nil {
			line += ": " + at.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
}
