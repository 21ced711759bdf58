package combinednms

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-combinednms/inference"
)

func TestParametersSize(t *testing.T) {
	assert.Equal(t, ParametersSize, binary.Size(Parameters{}))
	assert.Equal(t, ParametersSize, binary.Size(DefaultParameters()))
}

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	assert.Equal(t, float32(0.5), p.IoUThreshold)
	assert.Equal(t, float32(0.5), p.ScoreThreshold)
	assert.Equal(t, int32(100), p.NumOutputBoxes)
	assert.Equal(t, int32(-1), p.NumOutputBoxesPerClass)
	assert.False(t, p.PadOutputBoxesPerClass)
	assert.Equal(t, int32(-1), p.ScoreBits)
	assert.Equal(t, int32(4096), p.NumSelectedBoxes)
	assert.Equal(t, int32(1), p.NumClasses)
	assert.True(t, p.ShareLocation)
	assert.False(t, p.BoxDecoder)
	assert.Equal(t, inference.DataTypeFloat, p.DataType)
}

func TestClampOutputBoxes(t *testing.T) {
	tests := []struct {
		name       string
		pad        bool
		perClass   int32
		numBoxes   int32
		numClasses int32
		want       int32
		changed    bool
	}{
		{name: "padding disabled", pad: false, perClass: 1, numBoxes: 100, numClasses: 90, want: 100},
		{name: "no per class cap", pad: true, perClass: 0, numBoxes: 100, numClasses: 90, want: 100},
		{name: "negative per class cap", pad: true, perClass: -1, numBoxes: 100, numClasses: 90, want: 100},
		{name: "product larger", pad: true, perClass: 10, numBoxes: 100, numClasses: 90, want: 100},
		{name: "product equal", pad: true, perClass: 10, numBoxes: 100, numClasses: 10, want: 100},
		{name: "product smaller", pad: true, perClass: 1, numBoxes: 100, numClasses: 90, want: 90, changed: true},
		{name: "single class", pad: true, perClass: 5, numBoxes: 100, numClasses: 1, want: 5, changed: true},
		{name: "product above int32", pad: true, perClass: 1 << 30, numBoxes: 100, numClasses: 4, want: 100},
		{name: "product wraps to negative", pad: true, perClass: math.MaxInt32, numBoxes: 100, numClasses: 2, want: 100},
		{name: "max cap times max classes", pad: true, perClass: math.MaxInt32, numBoxes: math.MaxInt32, numClasses: math.MaxInt32, want: math.MaxInt32},
		{name: "dynamic class count", pad: true, perClass: 1, numBoxes: 100, numClasses: -1, want: 100},
		{name: "no classes", pad: true, perClass: 3, numBoxes: 100, numClasses: 0, want: 0, changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			p.PadOutputBoxesPerClass = tt.pad
			p.NumOutputBoxesPerClass = tt.perClass
			p.NumOutputBoxes = tt.numBoxes

			assert.Equal(t, tt.changed, p.ClampOutputBoxes(tt.numClasses))
			assert.Equal(t, tt.want, p.NumOutputBoxes)

			// A second application never lowers it further.
			assert.False(t, p.ClampOutputBoxes(tt.numClasses))
			assert.Equal(t, tt.want, p.NumOutputBoxes)
		})
	}
}

func TestParametersRoundTrip(t *testing.T) {
	want := DefaultParameters()
	want.IoUThreshold = 0.45
	want.ScoreThreshold = 0.05
	want.NumOutputBoxes = 300
	want.NumOutputBoxesPerClass = 25
	want.PadOutputBoxesPerClass = true
	want.ClipBoxes = true
	want.BatchSize = 8
	want.NumClasses = 91
	want.NumAnchors = 1917
	want.NumBoxElements = 1917 * 4
	want.NumScoreElements = 1917 * 91
	want.ShareLocation = false
	want.BoxDecoder = true
	want.DataType = inference.DataTypeHalf

	data, err := want.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, ParametersSize)

	var got Parameters
	require.NoError(t, got.UnmarshalBinary(data))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestParametersLayout pins the byte offsets of the serialized image, which previously
// persisted plans depend on.
func TestParametersLayout(t *testing.T) {
	p := DefaultParameters()
	p.IoUThreshold = 0.25
	p.NumOutputBoxes = 77
	p.PadOutputBoxesPerClass = true
	p.NumClasses = 90
	p.BoxDecoder = true
	p.DataType = inference.DataTypeHalf

	data, err := p.MarshalBinary()
	require.NoError(t, err)

	le := binary.LittleEndian
	assert.Equal(t, math.Float32bits(0.25), le.Uint32(data[0:4]), "iou threshold")
	assert.Equal(t, math.Float32bits(0.5), le.Uint32(data[4:8]), "score threshold")
	assert.Equal(t, uint32(77), le.Uint32(data[8:12]), "num output boxes")
	assert.Equal(t, uint32(0xffffffff), le.Uint32(data[12:16]), "num output boxes per class")
	assert.Equal(t, byte(1), data[16], "pad output boxes per class")
	assert.Equal(t, uint32(0xffffffff), le.Uint32(data[32:36]), "score bits")
	assert.Equal(t, uint32(90), le.Uint32(data[41:45]), "num classes")
	assert.Equal(t, byte(1), data[57], "share location")
	assert.Equal(t, byte(1), data[59], "box decoder")
	assert.Equal(t, uint32(inference.DataTypeHalf), le.Uint32(data[60:64]), "data type")
}

func TestParametersUnmarshalRejectsLength(t *testing.T) {
	valid, err := DefaultParameters().MarshalBinary()
	require.NoError(t, err)

	for _, data := range [][]byte{nil, valid[:ParametersSize-1], append(valid, 0)} {
		var p Parameters
		err := p.UnmarshalBinary(data)
		var sizeErr *SizeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, len(data), sizeErr.Got)
	}
}
