package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Sanaki/go-threading/core"
	obs "github.com/Sanaki/go-threading/observability/prometheus"
	"github.com/Sanaki/go-threading/observability/zerologger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run a scripted thread lifecycle scenario",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "scenario",
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "Path to the YAML scenario file",
			},
		},

		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	sc, err := loadScenario(c.String("scenario"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger := scenarioLogger(sc.Log)

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("threading", reg, obs.ExporterOptions{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("metrics setup failed: %v", err), 1)
	}

	rt := core.NewRuntime(&core.RuntimeConfig{Logger: logger, Metrics: exporter})
	defer rt.Shutdown()

	poller, err := obs.NewSnapshotPoller(reg, 50*time.Millisecond)
	if err != nil {
		return cli.Exit(fmt.Sprintf("metrics setup failed: %v", err), 1)
	}
	poller.AddRuntime("threadbench", rt)
	poller.Start(context.Background())
	defer poller.Stop()

	if sc.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: sc.MetricsAddr, Handler: mux}
		go func() {
			_ = server.ListenAndServe()
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
		fmt.Printf("Prometheus endpoint is up at http://127.0.0.1%s/metrics\n", sc.MetricsAddr)
	}

	joinable := make([]*core.Thread, 0, len(sc.Threads))
	for _, spec := range sc.Threads {
		th := spawnScenarioThread(rt, spec)
		if th == nil {
			return cli.Exit(fmt.Sprintf("thread %q failed to start", spec.Name), 1)
		}
		if spec.Kind == "joinable" {
			joinable = append(joinable, th)
		}
	}

	for _, th := range joinable {
		code, err := th.Wait()
		if err != nil {
			logger.Warn("join failed", core.F("thread", th.Name()), core.F("error", err))
			continue
		}
		fmt.Printf("✓ %s exited with code %d\n", th.Name(), code)
	}

	// Detached threads tear themselves down; give them a bounded window.
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if rt.LiveThreads() == 0 && rt.PendingDeletions() == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := rt.Stats()
	fmt.Printf("live=%d pending=%d\n", stats.LiveThreads, stats.PendingDeletions)
	return nil
}

// spawnScenarioThread starts one scripted thread and schedules its timed
// lifecycle operations.
func spawnScenarioThread(rt *core.Runtime, spec ThreadSpec) *core.Thread {
	kind := core.ThreadJoinable
	if spec.Kind == "detached" {
		kind = core.ThreadDetached
	}

	th := core.NewThread(rt, kind, func(th *core.Thread) int {
		for i := 0; i < spec.Iterations; i++ {
			if th.Checkpoint() {
				return core.ExitCodeCancelled
			}
			time.Sleep(time.Millisecond)
		}
		return 0
	})
	th.SetName(spec.Name)
	if spec.Priority != nil {
		if err := th.SetPriority(*spec.Priority); err != nil {
			rt.Logger().Warn("priority not applied",
				core.F("thread", spec.Name), core.F("error", err))
		}
	}

	if err := th.Run(); err != nil {
		rt.Logger().Error("thread start failed",
			core.F("thread", spec.Name), core.F("error", err))
		return nil
	}

	scheduleOp(spec.PauseAfterMS, func() { logOpErr(rt, spec.Name, "pause", th.Pause()) })
	scheduleOp(spec.ResumeAfterMS, func() { logOpErr(rt, spec.Name, "resume", th.Resume()) })
	scheduleOp(spec.KillAfterMS, func() { logOpErr(rt, spec.Name, "kill", th.Kill()) })

	return th
}

func scheduleOp(afterMS int, op func()) {
	if afterMS <= 0 {
		return
	}
	time.AfterFunc(time.Duration(afterMS)*time.Millisecond, op)
}

func logOpErr(rt *core.Runtime, name, op string, err error) {
	if err != nil {
		rt.Logger().Warn("scripted operation failed",
			core.F("thread", name), core.F("op", op), core.F("error", err))
	}
}

func scenarioLogger(mode string) core.Logger {
	switch mode {
	case "json":
		return zerologger.New(os.Stderr)
	case "off":
		return core.NewNoOpLogger()
	default:
		return zerologger.New(nil)
	}
}
