package chain_test

import (
	"testing"

	"leaveflow/internal/chain"

	"github.com/stretchr/testify/assert"
)

func TestFor_Templates(t *testing.T) {
	t.Run("merban junior staff gets full chain", func(t *testing.T) {
		c, err := chain.For("MERBAN CAPITAL", "junior_staff")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageManager, chain.StageHR, chain.StageCEO}, c)
	})

	t.Run("sdsl is ceo led", func(t *testing.T) {
		c, err := chain.For("SDSL", "senior_staff")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageCEO, chain.StageHR}, c)
		assert.True(t, chain.CEOFirst("SDSL"))
	})

	t.Run("sbl mirrors sdsl", func(t *testing.T) {
		c, err := chain.For("SBL", "junior_staff")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageCEO, chain.StageHR}, c)
	})

	t.Run("affiliate lookup is case and space insensitive", func(t *testing.T) {
		c, err := chain.For("  merban capital ", "junior_staff")
		assert.NoError(t, err)
		assert.Len(t, c, 3)
	})

	t.Run("unknown affiliate", func(t *testing.T) {
		_, err := chain.For("ACME", "junior_staff")
		assert.ErrorIs(t, err, chain.ErrUnknownAffiliate)
		assert.False(t, chain.Known("ACME"))
	})
}

func TestFor_SelfSkip(t *testing.T) {
	t.Run("merban manager skips own stage", func(t *testing.T) {
		c, err := chain.For("MERBAN CAPITAL", "manager")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageHR, chain.StageCEO}, c)
	})

	t.Run("merban hr keeps manager and ceo", func(t *testing.T) {
		c, err := chain.For("MERBAN CAPITAL", "hr")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageManager, chain.StageCEO}, c)
	})

	t.Run("merban ceo answers to manager and hr", func(t *testing.T) {
		c, err := chain.For("MERBAN CAPITAL", "ceo")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageManager, chain.StageHR}, c)
	})

	t.Run("sdsl ceo goes to hr only", func(t *testing.T) {
		c, err := chain.For("SDSL", "ceo")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageHR}, c)
	})

	t.Run("sdsl hr goes to ceo only", func(t *testing.T) {
		c, err := chain.For("SDSL", "hr")
		assert.NoError(t, err)
		assert.Equal(t, chain.Chain{chain.StageCEO}, c)
	})

	t.Run("admin requester matches no stage", func(t *testing.T) {
		c, err := chain.For("MERBAN CAPITAL", "admin")
		assert.NoError(t, err)
		assert.Len(t, c, 3)
	})
}

func TestChain_NextIndex(t *testing.T) {
	merban := chain.Chain{chain.StageManager, chain.StageHR, chain.StageCEO}
	sdsl := chain.Chain{chain.StageCEO, chain.StageHR}

	assert.Equal(t, 0, merban.NextIndex(chain.StatusPending))
	assert.Equal(t, 1, merban.NextIndex(chain.StatusManagerApproved))
	assert.Equal(t, 2, merban.NextIndex(chain.StatusHRApproved))
	assert.Equal(t, 3, merban.NextIndex(chain.StatusCEOApproved))

	assert.Equal(t, 0, sdsl.NextIndex(chain.StatusPending))
	assert.Equal(t, 1, sdsl.NextIndex(chain.StatusCEOApproved))
	assert.Equal(t, 2, sdsl.NextIndex(chain.StatusHRApproved))

	// Markers for stages the chain never had exhaust it.
	assert.Equal(t, 2, sdsl.NextIndex(chain.StatusManagerApproved))
}

func TestChain_StageAt(t *testing.T) {
	c := chain.Chain{chain.StageCEO, chain.StageHR}

	st, ok := c.StageAt(0)
	assert.True(t, ok)
	assert.Equal(t, chain.StageCEO, st)

	_, ok = c.StageAt(2)
	assert.False(t, ok)

	_, ok = c.StageAt(-1)
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, chain.IsTerminal(chain.StatusApproved))
	assert.True(t, chain.IsTerminal(chain.StatusRejected))
	assert.True(t, chain.IsTerminal(chain.StatusCancelled))
	assert.False(t, chain.IsTerminal(chain.StatusPending))
	assert.False(t, chain.IsTerminal(chain.StatusManagerApproved))
	assert.False(t, chain.IsTerminal(chain.StatusHRApproved))
	assert.False(t, chain.IsTerminal(chain.StatusCEOApproved))
}

func TestCompletionStatus(t *testing.T) {
	assert.Equal(t, chain.StatusManagerApproved, chain.CompletionStatus(chain.StageManager))
	assert.Equal(t, chain.StatusHRApproved, chain.CompletionStatus(chain.StageHR))
	assert.Equal(t, chain.StatusCEOApproved, chain.CompletionStatus(chain.StageCEO))
}

func TestChain_Contains(t *testing.T) {
	c := chain.Chain{chain.StageManager, chain.StageCEO}
	assert.True(t, c.Contains("manager"))
	assert.True(t, c.Contains("ceo"))
	assert.False(t, c.Contains("hr"))
}
