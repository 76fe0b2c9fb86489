package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseCPULine verifies counter summation and iowait-inclusive idle.
func TestParseCPULine(t *testing.T) {
	t.Parallel()

	// user nice system idle iowait
	total, idle, err := parseCPULine("cpu  10 5 15 60 10")
	require.NoError(t, err)
	require.Equal(t, uint64(100), total)
	require.Equal(t, uint64(70), idle)

	// No iowait column.
	total, idle, err = parseCPULine("cpu 10 5 15 70")
	require.NoError(t, err)
	require.Equal(t, uint64(100), total)
	require.Equal(t, uint64(70), idle)

	_, _, err = parseCPULine("cpu 1 2")
	require.Error(t, err)

	_, _, err = parseCPULine("cpu a b c d e")
	require.Error(t, err)
}
