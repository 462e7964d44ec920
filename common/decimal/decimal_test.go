package decimal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticPreservesScale(t *testing.T) {
	t.Parallel()
	a := MustFromString("10000.00", ScaleUSD)
	b := MustFromString("250.005", ScaleUSD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10250.01", sum.String(), "FromString rounds 250.005 half away from zero to 250.01")

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "9749.99", diff.String())
}

func TestDivByZero(t *testing.T) {
	t.Parallel()
	a := MustFromString("100", ScaleUSD)
	_, err := a.Div(Zero(ScaleUSD))
	require.Error(t, err)
}

func TestDivBankersRounding(t *testing.T) {
	t.Parallel()
	a := MustFromString("1", ScaleAsset)
	b := MustFromString("3", ScaleAsset)
	q, err := a.Div(b)
	require.NoError(t, err)
	assert.Equal(t, "0.33333333", q.String())
}

func TestMeanEmptyIsZeroNoDivideByZero(t *testing.T) {
	t.Parallel()
	m, err := Mean(ScalePercent)
	require.NoError(t, err)
	assert.True(t, m.IsZero())
}

func TestMean(t *testing.T) {
	t.Parallel()
	m, err := Mean(ScalePercent,
		MustFromString("0.8", ScalePercent),
		MustFromString("0.6", ScalePercent),
		MustFromString("0.4", ScalePercent),
	)
	require.NoError(t, err)
	assert.Equal(t, "0.6000", m.String())
}

func TestAbsAndSign(t *testing.T) {
	t.Parallel()
	neg := MustFromString("-40.50", ScaleUSD)
	assert.Equal(t, "40.50", neg.Abs().String())
	assert.Equal(t, -1, neg.Sign())
	assert.True(t, neg.IsNegative())
}

func TestOverflowAtPersistenceBoundary(t *testing.T) {
	t.Parallel()
	huge := ""
	for range 45 {
		huge += "9"
	}
	_, err := FromString(huge, ScaleUSD)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestScanRefusesFloat(t *testing.T) {
	t.Parallel()
	var m Money
	m = Zero(ScaleUSD)
	err := m.Scan(1.5)
	require.Error(t, err, "Scan must refuse float64 at the persistence boundary")
}

func TestMaxMin(t *testing.T) {
	t.Parallel()
	a := MustFromString("10", ScaleUSD)
	b := MustFromString("20", ScaleUSD)
	assert.Equal(t, b, Max(a, b))
	assert.Equal(t, a, Min(a, b))
}
