package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/MRamiBalles/GridSnake/internal/engine"
)

func TestBuiltInScenariosPass(t *testing.T) {
	for _, s := range All() {
		t.Run(s.Name, func(t *testing.T) {
			res := s.Run(context.Background(), nil)
			if !res.Passed {
				t.Errorf("Expected %q, got %q: %s", res.Expected, res.Actual, res.Reason)
			}
		})
	}
}

func TestBuiltInScenariosPassRepeatedly(t *testing.T) {
	for run := 0; run < 25; run++ {
		for _, res := range RunAll(context.Background(), All(), nil) {
			if !res.Passed {
				t.Fatalf("run %d: %s failed: %s", run, res.ScenarioName, res.Reason)
			}
		}
	}
}

func TestNewHarnessArmsScheduler(t *testing.T) {
	h, err := NewHarness(context.Background(), Setup{Rules: engine.DefaultRules(), Seed: 1}, nil)
	if err != nil {
		t.Fatalf("NewHarness failed: %v", err)
	}
	defer h.Close()

	if h.Sched.Resets() != 1 || h.Sched.Interval() != engine.DefaultInitialInterval {
		t.Errorf("Expected the scheduler armed at %s on return, got %s after %d resets",
			engine.DefaultInitialInterval, h.Sched.Interval(), h.Sched.Resets())
	}
}

func TestFailingScenarioIsReported(t *testing.T) {
	s := Scenario{
		Name:  "broken",
		Setup: Setup{Rules: engine.DefaultRules(), Seed: 1},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			return "nothing", errors.New("boom")
		},
	}
	res := s.Run(context.Background(), nil)
	if res.Passed || res.Reason != "boom" || res.Actual != "nothing" {
		t.Errorf("Expected a failed result carrying the reason, got %+v", res)
	}
}

func TestInvalidSetupIsReported(t *testing.T) {
	s := Scenario{
		Name: "bad start",
		Setup: Setup{
			Rules: engine.DefaultRules(),
			Start: &engine.GameState{GridSize: 5},
		},
		Play: func(ctx context.Context, h *Harness) (string, error) {
			t.Fatal("Play must not run for a broken setup")
			return "", nil
		},
	}
	if res := s.Run(context.Background(), nil); res.Passed || res.Reason == "" {
		t.Errorf("Expected the setup error to fail the scenario, got %+v", res)
	}
}

func TestRunAllKeepsOrder(t *testing.T) {
	results := RunAll(context.Background(), All(), nil)
	scenarios := All()
	if len(results) != len(scenarios) {
		t.Fatalf("Expected %d results, got %d", len(scenarios), len(results))
	}
	for i := range results {
		if results[i].ScenarioName != scenarios[i].Name {
			t.Errorf("Result %d is %q, expected %q", i, results[i].ScenarioName, scenarios[i].Name)
		}
	}
}
