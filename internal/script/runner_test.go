package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blr246/adbs-repcrec/internal/coordinator"
	"github.com/blr246/adbs-repcrec/internal/sitedir"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	dir, err := sitedir.New(10, 20, nil)
	require.NoError(t, err)
	coord, err := coordinator.New(dir, coordinator.MemStoreFactory)
	require.NoError(t, err)
	return NewRunner(coord)
}

func TestRunnerAppliesCommandsAndTracksLog(t *testing.T) {
	rn := newTestRunner(t)
	script := "begin(T1)\nW(T1,x2,99)\nend(T1)\n"

	require.NoError(t, rn.Run(strings.NewReader(script)))

	log := rn.CommitAbortLog()
	require.Len(t, log, 1)
	assert.Equal(t, coordinator.StatusCommitted, log[0].Status)
}

func TestRunnerDumpAllCollectsLines(t *testing.T) {
	rn := newTestRunner(t)
	require.NoError(t, rn.Run(strings.NewReader("dump()\n")))

	assert.NotEmpty(t, rn.Dumps())
}

func TestRunnerDumpVariableAndSite(t *testing.T) {
	rn := newTestRunner(t)
	require.NoError(t, rn.Run(strings.NewReader("dump(x4)\ndump(2)\n")))

	lines := rn.Dumps()
	assert.NotEmpty(t, lines)
}

func TestRunnerStopsAtFirstInputError(t *testing.T) {
	rn := newTestRunner(t)
	err := rn.Run(strings.NewReader("R(T1,x1)\n"))
	assert.Error(t, err)
}

func TestRunnerAbortsWhenAccessedSiteFailsBeforeEnd(t *testing.T) {
	rn := newTestRunner(t)
	// x1 is single-sited at site 2 (the reference placement); once T1's
	// write reaches it, failing that site before end(T1) must abort.
	script := "begin(T1)\nW(T1,x1,5)\nfail(2)\nend(T1)\n"
	require.NoError(t, rn.Run(strings.NewReader(script)))

	log := rn.CommitAbortLog()
	require.Len(t, log, 1)
	assert.Equal(t, coordinator.StatusAborted, log[0].Status)
}
