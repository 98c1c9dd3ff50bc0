package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/pulsar-engine/installer/internal/logger"
	"github.com/pulsar-engine/installer/internal/progress"
)

// State is the lifecycle of one pipeline run.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Pipeline executes an ordered list of steps, scaling each step's progress
// into its slice of the overall range, and unwinds completed steps in
// reverse order on failure. One pipeline serves one installation attempt;
// Run may be called once.
//
// The destination path tree is exclusively the pipeline's for the duration
// of a run. Nothing else may write there concurrently; this is a caller
// obligation, not enforced by locking.
type Pipeline struct {
	steps  []Step
	cursor int
	state  State
}

// New builds a pipeline over steps already bound to the right platform
// collaborators.
func New(pipelineSteps ...Step) *Pipeline {
	return &Pipeline{steps: pipelineSteps, state: NotStarted}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Cursor returns the index of the next step to run; after a run it bounds
// the rollback sweep that was (or would have been) performed.
func (p *Pipeline) Cursor() int { return p.cursor }

// TotalSteps returns the number of steps in the pipeline.
func (p *Pipeline) TotalSteps() int { return len(p.steps) }

// Run executes the steps in order. On the first failure it stops, rolls
// back every prior step in strictly descending index order, and returns the
// failing step's error; rollback failures are logged, never returned in its
// place. A cancelled context takes the same rollback path but leaves the
// pipeline Cancelled instead of Failed.
func (p *Pipeline) Run(ctx context.Context, sink progress.Sink) error {
	if p.state != NotStarted {
		return fmt.Errorf("pipeline already ran (state %s)", p.state)
	}
	if sink == nil {
		sink = progress.Discard
	}
	log := logger.Logger()

	p.state = Running
	total := len(p.steps)

	for ; p.cursor < total; p.cursor++ {
		step := p.steps[p.cursor]

		if err := ctx.Err(); err != nil {
			return p.fail(err, sink)
		}

		runnable, err := step.CanExecute()
		if err != nil {
			return p.fail(fmt.Errorf("step %q gate: %w", step.Name(), err), sink)
		}
		if !runnable {
			log.Debugf("skipping step %q", step.Name())
			continue
		}

		lo := float64(p.cursor) / float64(total) * 100
		hi := float64(p.cursor+1) / float64(total) * 100
		stepSink := progress.Scaled(sink, lo, hi)
		stepSink(progress.New(0).WithMessage(step.Description()))

		log.Infof("running step %d/%d: %s", p.cursor+1, total, step.Name())
		if err := step.Execute(ctx, stepSink); err != nil {
			return p.fail(fmt.Errorf("step %q: %w", step.Name(), err), sink)
		}
	}

	p.state = Completed
	sink(progress.New(100).WithMessage("Installation complete"))
	return nil
}

// fail records the terminal state, sweeps rollbacks, and returns the
// original error.
func (p *Pipeline) fail(cause error, sink progress.Sink) error {
	log := logger.Logger()

	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		p.state = Cancelled
		log.Warnf("installation cancelled, rolling back")
	} else {
		p.state = Failed
		log.Errorf("installation failed, rolling back: %v", cause)
	}

	if rbErr := p.rollback(); rbErr != nil {
		log.Errorf("rollback finished with errors: %v", rbErr)
	}

	sink(progress.New(0).WithMessage("Installation rolled back"))
	return cause
}

// rollback unwinds steps with index < cursor in strictly descending order,
// collecting failures.
func (p *Pipeline) rollback() error {
	log := logger.Logger()

	var result *multierror.Error
	for i := p.cursor - 1; i >= 0; i-- {
		step := p.steps[i]
		log.Infof("rolling back step %d: %s", i+1, step.Name())
		if err := step.Rollback(); err != nil {
			result = multierror.Append(result, fmt.Errorf("rollback of %q: %w", step.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
