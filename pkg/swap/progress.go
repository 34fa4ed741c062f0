package swap

import (
	"fmt"
	"sync"
)

// StepStatus is the display state of a single progress step
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepLoading   StepStatus = "loading"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// Step is one entry in the fixed progress sequence shown to the user
type Step struct {
	Title       string
	Description string
	Status      StepStatus
}

// The default four-step sequence for a swap attempt
const (
	StepAllowance = iota
	StepWalletConfirmation
	StepProcessing
	StepTransfer
)

func defaultSteps() []Step {
	return []Step{
		{Title: "Allowance", Description: "Grant the settlement authority an allowance", Status: StepPending},
		{Title: "Wallet confirmation", Description: "Confirm the transaction in your wallet", Status: StepPending},
		{Title: "Processing", Description: "Waiting for on-chain confirmation", Status: StepPending},
		{Title: "Transfer complete", Description: "Settlement finalized", Status: StepPending},
	}
}

// Progress tracks the ordered step sequence for one swap attempt. Steps only
// ever advance in increasing index order; once a step errors, no later step
// leaves pending. Created fresh per attempt.
type Progress struct {
	mu       sync.Mutex
	steps    []Step
	cursor   int
	terminal bool
	onChange func(steps []Step)
}

// NewProgress creates a tracker over the default step sequence
func NewProgress() *Progress {
	return &Progress{steps: defaultSteps()}
}

// NewProgressWithSteps creates a tracker over a custom step sequence
func NewProgressWithSteps(steps []Step) *Progress {
	return &Progress{steps: steps}
}

// Subscribe registers a callback invoked with a snapshot after every change.
// No business logic belongs in the callback.
func (p *Progress) Subscribe(fn func(steps []Step)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Advance moves the given step to a new status. Backward moves, skipped
// steps, and updates after a terminal state are rejected.
func (p *Progress) Advance(index int, status StepStatus, description string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.steps) {
		return fmt.Errorf("step index %d out of range", index)
	}
	if p.terminal {
		return fmt.Errorf("progress is terminal, cannot advance step %d", index)
	}
	if index < p.cursor {
		return fmt.Errorf("step %d already resolved, cannot regress", index)
	}
	if index > p.cursor {
		// earlier steps must be resolved before a later one starts
		if p.steps[p.cursor].Status != StepCompleted {
			return fmt.Errorf("step %d is not resolved, cannot advance step %d", p.cursor, index)
		}
		p.cursor = index
	}

	p.steps[index].Status = status
	if description != "" {
		p.steps[index].Description = description
	}

	switch status {
	case StepError:
		p.terminal = true
	case StepCompleted:
		if index == len(p.steps)-1 {
			p.terminal = true
		} else {
			p.cursor = index + 1
		}
	}

	if p.onChange != nil {
		p.onChange(p.snapshotLocked())
	}
	return nil
}

// Fail marks the currently loading step as errored. If no step is loading,
// the current step is errored in place.
func (p *Progress) Fail(description string) {
	p.mu.Lock()
	idx := p.cursor
	p.mu.Unlock()
	_ = p.Advance(idx, StepError, description)
}

// Steps returns a snapshot of the current step states
func (p *Progress) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Terminal reports whether the sequence reached a final state
func (p *Progress) Terminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

func (p *Progress) snapshotLocked() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}
