package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGBToMB(t *testing.T) {
	assert.Equal(t, 1024, GBToMB(1))
	assert.Equal(t, 2048, GBToMB(2))
	assert.Equal(t, 0, GBToMB(0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2349))
	assert.Equal(t, 1.0, Round2(1.0))
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat(-1.5))
	assert.Equal(t, 2.5, ClampFloat(2.5))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-5))
	assert.Equal(t, 5, ClampInt(5))
}

func TestClampFloatUpper(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloatUpper(-1, 10))
	assert.Equal(t, 10.0, ClampFloatUpper(15, 10))
	assert.Equal(t, 5.0, ClampFloatUpper(5, 10))
}

func TestClampIntUpper(t *testing.T) {
	assert.Equal(t, 0, ClampIntUpper(-1, 10))
	assert.Equal(t, 10, ClampIntUpper(15, 10))
	assert.Equal(t, 5, ClampIntUpper(5, 10))
}

func TestIDSequenceStartsAtZeroAndIncrements(t *testing.T) {
	seq := NewIDSequence()
	assert.Equal(t, int64(0), seq.Next())
	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
}

func TestIDSequencesAreIndependent(t *testing.T) {
	a := NewIDSequence()
	b := NewIDSequence()
	a.Next()
	a.Next()
	assert.Equal(t, int64(0), b.Next())
}

func TestValidationErrorsAddIf(t *testing.T) {
	var errs ValidationErrors
	errs.AddIf(false, "x", 1, "should not appear")
	errs.AddIf(true, "y", -1, "must be non-negative")
	assert.False(t, ValidationErrors{}.HasErrors())
	assert.True(t, errs.HasErrors())
	assert.Contains(t, errs.Error(), "y")
}

func TestValidationErrorsMultipleMessage(t *testing.T) {
	var errs ValidationErrors
	errs.Add("a", 1, "bad a")
	errs.Add("b", 2, "bad b")
	assert.Contains(t, errs.Error(), "and 1 more errors")
}

func TestHistoryAppendStaysAligned(t *testing.T) {
	h := &History{}
	h.Append(0, 1.0, 2, 3, 4)
	h.Append(1, 1.5, 2, 3, 4)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []float64{1.0, 1.5}, h.CPU)
}

func TestTrendFirstSampleIsZero(t *testing.T) {
	tr := NewTrend()
	s := tr.Update(0, 10)
	assert.Equal(t, 0.0, s.Velocity)
	assert.Equal(t, 0.0, s.Acceleration)
}

func TestTrendTracksPositiveVelocity(t *testing.T) {
	tr := NewTrend()
	tr.Update(0, 0)
	s := tr.Update(1, 10)
	assert.Greater(t, s.Velocity, 0.0)
}

func TestTrendIgnoresNonPositiveDeltaTime(t *testing.T) {
	tr := NewTrend()
	tr.Update(0, 0)
	tr.Update(1, 10)
	s := tr.Update(1, 20)
	assert.NotPanics(t, func() { tr.Update(1, 30) })
	_ = s
}
