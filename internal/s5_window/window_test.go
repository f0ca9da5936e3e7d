package s5_window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// seqRows returns n rows of [i, 10*i]
func seqRows(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(10 * i)}
	}
	return rows
}

func TestMakeWindows_Count(t *testing.T) {
	tests := []struct {
		n, s, h int
		want    int
	}{
		{30, 20, 5, 6},
		{25, 20, 5, 1},
		{24, 20, 5, 0},
		{0, 3, 1, 0},
		{10, 1, 1, 9},
		{10, 3, 1, 7},
	}
	for _, tt := range tests {
		ws, err := MakeWindows(seqRows(tt.n), tt.s, tt.h, 1)
		require.NoError(t, err)
		assert.Len(t, ws, tt.want, "n=%d s=%d h=%d", tt.n, tt.s, tt.h)
		assert.Equal(t, tt.want, Count(tt.n, tt.s, tt.h))
		for _, w := range ws {
			assert.Len(t, w.History, tt.s)
			assert.Len(t, w.Target, tt.h)
		}
	}
}

func TestMakeWindows_Contents(t *testing.T) {
	ws, err := MakeWindows(seqRows(8), 3, 2, 1)
	require.NoError(t, err)
	require.Len(t, ws, 4)

	for i, w := range ws {
		assert.Equal(t, i, w.Start)
		assert.Equal(t, []float64{float64(i), float64(10 * i)}, w.History[0])
		assert.Equal(t, []float64{float64(i + 2), float64(10 * (i + 2))}, w.History[2])
		assert.Equal(t, []float64{float64(10 * (i + 3)), float64(10 * (i + 4))}, w.Target)
	}
	assert.Equal(t, []float64{0, 0, 1, 10, 2, 20}, ws[0].Flatten())
}

func TestMakeWindows_CopiesRows(t *testing.T) {
	rows := seqRows(5)
	ws, err := MakeWindows(rows, 2, 1, 0)
	require.NoError(t, err)

	rows[0][0] = 99
	assert.Equal(t, 0.0, ws[0].History[0][0])
}

func TestMakeWindows_InvalidArgs(t *testing.T) {
	_, err := MakeWindows(seqRows(5), 0, 1, 0)
	assert.True(t, contracts.IsDataValidation(err))

	_, err = MakeWindows(seqRows(5), 2, 1, 5)
	assert.True(t, contracts.IsDataValidation(err))
}

func TestRequireWindows_Boundary(t *testing.T) {
	const s, h = 20, 5

	exact, err := MakeWindows(seqRows(s+h), s, h, 0)
	require.NoError(t, err)
	assert.Len(t, exact, 1)
	assert.NoError(t, RequireWindows(exact, 1))

	short, err := MakeWindows(seqRows(s+h-1), s, h, 0)
	require.NoError(t, err)
	assert.Empty(t, short)

	err = RequireWindows(short, 1)
	require.Error(t, err)
	assert.True(t, contracts.IsInsufficientData(err))
	assert.Contains(t, err.Error(), "have 0, need 1")
}

func TestHistory_AppendAndEvict(t *testing.T) {
	h := NewHistory(3, 2)
	assert.Nil(t, h.Latest())

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Push([]float64{float64(i), 0}))
	}
	assert.True(t, h.Full())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, [][]float64{{2, 0}, {3, 0}, {4, 0}}, h.Rows())
	assert.Equal(t, []float64{4, 0}, h.Latest())

	assert.Error(t, h.Push([]float64{1}))
}

func TestHistory_NoAliasing(t *testing.T) {
	src := seqRows(4)
	h, err := HistoryFrom(src, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 20}, {3, 30}}, h.Rows())

	src[3][0] = -1
	out := h.Rows()
	out[0][0] = -2
	assert.Equal(t, [][]float64{{2, 20}, {3, 30}}, h.Rows())

	_, err = HistoryFrom(src, 5)
	assert.Error(t, err)
}
