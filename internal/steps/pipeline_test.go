package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/pulsar-engine/installer/internal/progress"
)

// fakeStep records execution and rollback order into a shared journal.
type fakeStep struct {
	name     string
	skip     bool
	execErr  error
	rbErr    error
	journal  *[]string
	executed bool
}

func (f *fakeStep) Name() string              { return f.name }
func (f *fakeStep) Description() string       { return "fake step " + f.name }
func (f *fakeStep) CanExecute() (bool, error) { return !f.skip, nil }

func (f *fakeStep) Rollback() error {
	*f.journal = append(*f.journal, "rollback:"+f.name)
	return f.rbErr
}

func (f *fakeStep) Execute(ctx context.Context, sink progress.Sink) error {
	f.executed = true
	*f.journal = append(*f.journal, "exec:"+f.name)
	if f.execErr != nil {
		return f.execErr
	}
	sink(progress.New(100))
	return nil
}

func TestPipelineRunsAllSteps(t *testing.T) {
	var journal []string
	p := New(
		&fakeStep{name: "a", journal: &journal},
		&fakeStep{name: "b", journal: &journal},
		&fakeStep{name: "c", journal: &journal},
	)

	if err := p.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if p.State() != Completed {
		t.Errorf("state = %s, want completed", p.State())
	}

	want := []string{"exec:a", "exec:b", "exec:c"}
	assertJournal(t, journal, want)
}

func TestPipelineRollsBackInReverseOrder(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	p := New(
		&fakeStep{name: "a", journal: &journal},
		&fakeStep{name: "b", journal: &journal},
		&fakeStep{name: "c", journal: &journal, execErr: boom},
		&fakeStep{name: "d", journal: &journal},
	)

	err := p.Run(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped boom", err)
	}
	if p.State() != Failed {
		t.Errorf("state = %s, want failed", p.State())
	}

	want := []string{"exec:a", "exec:b", "exec:c", "rollback:b", "rollback:a"}
	assertJournal(t, journal, want)
}

func TestPipelineRollbackErrorNeverMasksOriginal(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	p := New(
		&fakeStep{name: "a", journal: &journal, rbErr: errors.New("rollback broke too")},
		&fakeStep{name: "b", journal: &journal, execErr: boom},
	)

	err := p.Run(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want the original failure", err)
	}
	assertJournal(t, journal, []string{"exec:a", "exec:b", "rollback:a"})
}

func TestPipelineSkipsIneligibleSteps(t *testing.T) {
	var journal []string
	skipped := &fakeStep{name: "b", journal: &journal, skip: true}
	p := New(
		&fakeStep{name: "a", journal: &journal},
		skipped,
		&fakeStep{name: "c", journal: &journal},
	)

	if err := p.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if skipped.executed {
		t.Error("skipped step was executed")
	}
	assertJournal(t, journal, []string{"exec:a", "exec:c"})
}

func TestPipelineCancellation(t *testing.T) {
	var journal []string
	ctx, cancel := context.WithCancel(context.Background())

	p := New(
		&fakeStep{name: "a", journal: &journal},
		&fakeStep{name: "b", journal: &journal},
	)
	cancel()

	err := p.Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if p.State() != Cancelled {
		t.Errorf("state = %s, want cancelled", p.State())
	}
	// Cancelled before the first step ran: nothing executed, nothing to undo.
	assertJournal(t, journal, nil)
}

func TestPipelineMidRunCancellationRollsBack(t *testing.T) {
	var journal []string
	p := New(
		&fakeStep{name: "a", journal: &journal},
		&fakeStep{name: "b", journal: &journal, execErr: context.Canceled},
	)

	err := p.Run(context.Background(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if p.State() != Cancelled {
		t.Errorf("state = %s, want cancelled", p.State())
	}
	assertJournal(t, journal, []string{"exec:a", "exec:b", "rollback:a"})
}

func TestPipelineRunsOnlyOnce(t *testing.T) {
	var journal []string
	p := New(&fakeStep{name: "a", journal: &journal})

	if err := p.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if err := p.Run(context.Background(), nil); err == nil {
		t.Fatal("second Run should fail")
	}
	assertJournal(t, journal, []string{"exec:a"})
}

func TestPipelineProgressIsScaledAndMonotone(t *testing.T) {
	var journal []string
	var percents []float64
	sink := func(p progress.Progress) { percents = append(percents, p.Percent) }

	p := New(
		&fakeStep{name: "a", journal: &journal},
		&fakeStep{name: "b", journal: &journal},
	)
	if err := p.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	last := -1.0
	for i, pc := range percents {
		if pc < last {
			t.Fatalf("progress regressed at update %d: %v -> %v", i, last, pc)
		}
		if pc < 0 || pc > 100 {
			t.Fatalf("progress out of range: %v", pc)
		}
		last = pc
	}
	if last != 100 {
		t.Errorf("final progress = %v, want 100", last)
	}
}

func assertJournal(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("journal = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("journal[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
