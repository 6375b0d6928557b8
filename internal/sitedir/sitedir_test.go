package sitedir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadCounts(t *testing.T) {
	_, err := New(0, 20, nil)
	assert.Error(t, err)

	_, err = New(10, 0, nil)
	assert.Error(t, err)
}

func TestPlacementOddVariablesAreSingleSited(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, d.SitesFor(1))
	assert.Equal(t, []int{4}, d.SitesFor(3))
	assert.Equal(t, []int{10}, d.SitesFor(19))
	assert.False(t, d.IsReplicated(1))
}

func TestPlacementEvenVariablesAreReplicated(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	sites := d.SitesFor(4)
	require.Len(t, sites, 10)
	for i, s := range sites {
		assert.Equal(t, i+1, s)
	}
	assert.True(t, d.IsReplicated(4))
}

func TestHosts(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	assert.True(t, d.Hosts(2, 1))
	assert.False(t, d.Hosts(1, 1))
	for _, s := range d.Sites() {
		assert.True(t, d.Hosts(s, 4))
	}
}

func TestDefaultValue(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	for _, v := range d.Variables() {
		assert.Equal(t, 10*v, d.DefaultValue(v))
	}
}

func TestDefaultValueOverride(t *testing.T) {
	d, err := New(10, 20, map[int]int{4: 999})
	require.NoError(t, err)

	assert.Equal(t, 999, d.DefaultValue(4))
	// Every other variable keeps the 10*i default.
	assert.Equal(t, 30, d.DefaultValue(3))
}

func TestVariablesAtIsInverseOfSitesFor(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	for _, v := range d.Variables() {
		for _, s := range d.SitesFor(v) {
			assert.Contains(t, d.VariablesAt(s), v)
		}
	}
}

func TestValidVariableAndSite(t *testing.T) {
	d, err := New(10, 20, nil)
	require.NoError(t, err)

	assert.True(t, d.ValidVariable(1))
	assert.True(t, d.ValidVariable(20))
	assert.False(t, d.ValidVariable(0))
	assert.False(t, d.ValidVariable(21))

	assert.True(t, d.ValidSite(1))
	assert.False(t, d.ValidSite(11))
}
