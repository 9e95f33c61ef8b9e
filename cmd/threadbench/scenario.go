package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted workload: a set of managed threads with optional
// timed lifecycle operations, loaded from a YAML file.
//
//	log: console            # console | json | off
//	metrics_addr: ":2112"   # optional Prometheus endpoint
//	threads:
//	  - name: worker-a
//	    kind: joinable
//	    priority: 60
//	    iterations: 500
//	    pause_after_ms: 50
//	    resume_after_ms: 150
//	  - name: background
//	    kind: detached
//	    iterations: 200
//	    kill_after_ms: 100
type Scenario struct {
	Log         string       `yaml:"log"`
	MetricsAddr string       `yaml:"metrics_addr"`
	Threads     []ThreadSpec `yaml:"threads"`
}

// ThreadSpec describes one managed thread in a scenario.
type ThreadSpec struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Priority   *uint  `yaml:"priority"`
	Iterations int    `yaml:"iterations"`

	// Timed lifecycle operations, measured from thread start. Zero means
	// the operation is not performed.
	PauseAfterMS  int `yaml:"pause_after_ms"`
	ResumeAfterMS int `yaml:"resume_after_ms"`
	KillAfterMS   int `yaml:"kill_after_ms"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	switch sc.Log {
	case "", "console", "json", "off":
	default:
		return fmt.Errorf("log: unknown mode %q (want console, json or off)", sc.Log)
	}

	if len(sc.Threads) == 0 {
		return fmt.Errorf("threads: scenario defines no threads")
	}

	for i, spec := range sc.Threads {
		switch spec.Kind {
		case "joinable", "detached":
		default:
			return fmt.Errorf("threads[%d]: unknown kind %q (want joinable or detached)", i, spec.Kind)
		}
		if spec.Priority != nil && *spec.Priority > 100 {
			return fmt.Errorf("threads[%d]: priority %d out of range 0..100", i, *spec.Priority)
		}
		if spec.Iterations <= 0 {
			return fmt.Errorf("threads[%d]: iterations must be positive", i)
		}
		if spec.ResumeAfterMS > 0 && spec.PauseAfterMS == 0 {
			return fmt.Errorf("threads[%d]: resume_after_ms without pause_after_ms", i)
		}
		if spec.ResumeAfterMS > 0 && spec.ResumeAfterMS <= spec.PauseAfterMS {
			return fmt.Errorf("threads[%d]: resume_after_ms must be after pause_after_ms", i)
		}
	}
	return nil
}
