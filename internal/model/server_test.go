package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretBinaryOutput(t *testing.T) {
	classes := []string{"NORMAL", "PNEUMONIA"}

	pred, err := interpret([]float32{0.97}, classes)
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", pred.Class)
	assert.InDelta(t, 0.97, pred.Confidence, 1e-6)
	assert.Equal(t, SeveritySevere, pred.Severity)
	assert.InDelta(t, 0.03, pred.Scores["NORMAL"], 1e-6)
	assert.InDelta(t, 0.97, pred.Scores["PNEUMONIA"], 1e-6)
}

func TestInterpretBinaryOutputNegative(t *testing.T) {
	classes := []string{"NORMAL", "PNEUMONIA"}

	pred, err := interpret([]float32{0.2}, classes)
	require.NoError(t, err)
	assert.Equal(t, "NORMAL", pred.Class)
	assert.InDelta(t, 0.8, pred.Confidence, 1e-6)
	assert.Equal(t, SeverityNone, pred.Severity)
}

func TestInterpretBinaryBoundary(t *testing.T) {
	// Exactly 0.5 counts as a positive finding.
	pred, err := interpret([]float32{0.5}, []string{"NORMAL", "PNEUMONIA"})
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", pred.Class)
	assert.Equal(t, SeverityMild, pred.Severity)
}

func TestInterpretMultiClassArgmax(t *testing.T) {
	classes := []string{"NORMAL", "BACTERIAL", "VIRAL"}

	pred, err := interpret([]float32{0.1, 0.7, 0.2}, classes)
	require.NoError(t, err)
	assert.Equal(t, "BACTERIAL", pred.Class)
	assert.InDelta(t, 0.7, pred.Confidence, 1e-6)
	assert.Len(t, pred.Scores, 3)
}

func TestInterpretEmptyOutput(t *testing.T) {
	_, err := interpret(nil, []string{"NORMAL", "PNEUMONIA"})
	assert.Error(t, err)
}

func TestSeverityGrading(t *testing.T) {
	cases := []struct {
		class      string
		confidence float32
		want       string
	}{
		{"NORMAL", 0.99, SeverityNone},
		{"normal", 0.60, SeverityNone},
		{"PNEUMONIA", 0.60, SeverityMild},
		{"PNEUMONIA", 0.74, SeverityMild},
		{"PNEUMONIA", 0.75, SeverityModerate},
		{"PNEUMONIA", 0.89, SeverityModerate},
		{"PNEUMONIA", 0.90, SeveritySevere},
		{"PNEUMONIA", 1.0, SeveritySevere},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, severityFor(tc.class, tc.confidence),
			"class=%s confidence=%v", tc.class, tc.confidence)
	}
}

func TestMetadataValidate(t *testing.T) {
	valid := Metadata{
		InputShape:  []int64{1, 3, 150, 150},
		OutputShape: []int64{1, 1},
		Classes:     []string{"NORMAL", "PNEUMONIA"},
		ImageSize:   150,
	}
	assert.NoError(t, valid.validate())

	noClasses := valid
	noClasses.Classes = nil
	assert.Error(t, noClasses.validate())

	badSize := valid
	badSize.ImageSize = 0
	assert.Error(t, badSize.validate())

	noShape := valid
	noShape.InputShape = nil
	assert.Error(t, noShape.validate())
}

func TestExpectedInputLen(t *testing.T) {
	m := Metadata{InputShape: []int64{1, 3, 150, 150}}
	assert.Equal(t, 3*150*150, m.ExpectedInputLen())
}

func TestNewServerMissingModel(t *testing.T) {
	_, err := NewServer("testdata/does-not-exist.onnx", "testdata/does-not-exist.json")
	assert.Error(t, err)
}
