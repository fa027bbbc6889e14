package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/xeronsec/xeron/internal/model"
)

// fakeStep records whether it ran and optionally fails.
type fakeStep struct {
	name string
	err  error
	ran  bool
	do   func(report *model.CrawlReport)
}

func (s *fakeStep) Do(_ context.Context, report *model.CrawlReport) error {
	s.ran = true
	if s.do != nil {
		s.do(report)
	}
	return s.err
}

func (s *fakeStep) Name() string { return s.name }

// TestPipelineExecute tests step sequencing and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"first", "second", "third"} {
			p.AddStep(&fakeStep{
				name: name,
				do: func(*model.CrawlReport) {
					order = append(order, name)
				},
			})
		}

		report := model.NewCrawlReport("https://example.com", 1)
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("execute failed: %v", err)
		}

		if len(order) != 3 || order[0] != "first" || order[2] != "third" {
			t.Errorf("unexpected execution order: %v", order)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &fakeStep{name: "failing", err: boom}
		after := &fakeStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		report := model.NewCrawlReport("https://example.com", 1)
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if after.ran {
			t.Error("step after a failure must not run")
		}
		if report.ErrorMessage != "boom" {
			t.Errorf("error not recorded in report: %q", report.ErrorMessage)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &fakeStep{name: "failing", err: errors.New("boom")}
		after := &fakeStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		report := model.NewCrawlReport("https://example.com", 1)
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("execute should not fail with continueOnError: %v", err)
		}
		if !after.ran {
			t.Error("subsequent step should run with continueOnError")
		}
	})

	t.Run("cancelled context marks report timed out", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := New()
		step := &fakeStep{name: "never"}
		p.AddStep(step)

		report := model.NewCrawlReport("https://example.com", 1)
		err := p.Execute(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if step.ran {
			t.Error("step must not run after cancellation")
		}
		if !report.TimedOut {
			t.Error("report should be marked timed out")
		}
	})
}

// TestPipelineStepNames tests step introspection.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(&fakeStep{name: "crawl"}, &fakeStep{name: "history"})

	if p.StepCount() != 2 {
		t.Errorf("expected 2 steps, got %d", p.StepCount())
	}

	names := p.StepNames()
	if names[0] != "crawl" || names[1] != "history" {
		t.Errorf("unexpected step names: %v", names)
	}
}
