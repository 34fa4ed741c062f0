package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHappyPath(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(StepAllowance, StepLoading, ""))
	require.NoError(t, p.Advance(StepAllowance, StepCompleted, ""))
	require.NoError(t, p.Advance(StepWalletConfirmation, StepLoading, ""))
	require.NoError(t, p.Advance(StepWalletConfirmation, StepCompleted, ""))
	require.NoError(t, p.Advance(StepProcessing, StepLoading, ""))
	require.NoError(t, p.Advance(StepProcessing, StepCompleted, ""))
	require.NoError(t, p.Advance(StepTransfer, StepCompleted, "Token swap was successful!"))

	steps := p.Steps()
	for i, s := range steps {
		assert.Equal(t, StepCompleted, s.Status, "step %d", i)
	}
	assert.True(t, p.Terminal())
}

func TestProgressNeverRegresses(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(StepAllowance, StepCompleted, ""))
	require.NoError(t, p.Advance(StepWalletConfirmation, StepLoading, ""))

	err := p.Advance(StepAllowance, StepLoading, "")
	assert.Error(t, err)
}

func TestProgressNoSkipping(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(StepAllowance, StepLoading, ""))
	// allowance is still loading; processing may not start
	err := p.Advance(StepProcessing, StepLoading, "")
	assert.Error(t, err)

	steps := p.Steps()
	assert.Equal(t, StepPending, steps[StepProcessing].Status)
}

func TestProgressErrorIsTerminal(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(StepAllowance, StepCompleted, ""))
	require.NoError(t, p.Advance(StepWalletConfirmation, StepError, "approval failed"))

	assert.True(t, p.Terminal())
	assert.Error(t, p.Advance(StepProcessing, StepLoading, ""))

	steps := p.Steps()
	assert.Equal(t, StepCompleted, steps[StepAllowance].Status)
	assert.Equal(t, StepError, steps[StepWalletConfirmation].Status)
	assert.Equal(t, StepPending, steps[StepProcessing].Status)
	assert.Equal(t, StepPending, steps[StepTransfer].Status)
}

func TestProgressFailMarksCurrentStep(t *testing.T) {
	p := NewProgress()

	require.NoError(t, p.Advance(StepAllowance, StepCompleted, ""))
	require.NoError(t, p.Advance(StepWalletConfirmation, StepLoading, ""))

	p.Fail("user rejected the signature request")

	steps := p.Steps()
	assert.Equal(t, StepError, steps[StepWalletConfirmation].Status)
	assert.Equal(t, "user rejected the signature request", steps[StepWalletConfirmation].Description)
	assert.True(t, p.Terminal())
}

func TestProgressSubscriber(t *testing.T) {
	p := NewProgress()

	var updates int
	p.Subscribe(func(steps []Step) { updates++ })

	require.NoError(t, p.Advance(StepAllowance, StepLoading, ""))
	require.NoError(t, p.Advance(StepAllowance, StepCompleted, ""))
	assert.Equal(t, 2, updates)
}
