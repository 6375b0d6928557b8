package waitgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoCycleInitially(t *testing.T) {
	g := New()
	assert.False(t, g.HasCycle())
}

func TestSimpleChainHasNoCycle(t *testing.T) {
	g := New()
	g.SetWaits(3, []int{2})
	g.SetWaits(2, []int{1})
	assert.False(t, g.HasCycle())
}

func TestDetectsCycle(t *testing.T) {
	g := New()
	g.SetWaits(1, []int{2})
	g.SetWaits(2, []int{3})
	g.SetWaits(3, []int{1})

	cyc := g.FindCycle()
	assert.Len(t, cyc, 3)
}

func TestClearWaitsBreaksCycle(t *testing.T) {
	g := New()
	g.SetWaits(1, []int{2})
	g.SetWaits(2, []int{1})
	assert.True(t, g.HasCycle())

	g.ClearWaits(1)
	assert.False(t, g.HasCycle())
}

func TestSetWaitsIgnoresSelfEdge(t *testing.T) {
	g := New()
	g.SetWaits(1, []int{1, 2})
	assert.False(t, g.HasCycle())
}
