package combinednms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
max_output_size_per_class: 10
max_total_size: 100
iou_threshold: 0.45
score_threshold: 0.25
pad_per_class: true
clip_boxes: true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		MaxOutputSizePerClass: 10,
		MaxTotalSize:          100,
		IoUThreshold:          0.45,
		ScoreThreshold:        0.25,
		PadPerClass:           true,
		ClipBoxes:             true,
	}, config)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "iou_threshold: 0.7\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.IoUThreshold = 0.7
	assert.Equal(t, want, *config)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"malformed yaml", "max_total_size: [1, 2", "parsing combined NMS config"},
		{"wrong type", "max_total_size: many\n", "parsing combined NMS config"},
		{"nan threshold", "iou_threshold: .nan\n", "iou_threshold must be a finite number"},
		{"infinite threshold", "score_threshold: -.inf\n", "score_threshold must be a finite number"},
		{"zero total", "max_total_size: 0\n", "max_total_size must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.message)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading combined NMS config")
}

func TestConfigFields(t *testing.T) {
	config := DefaultConfig()
	config.PadPerClass = true
	config.MaxOutputSizePerClass = 5

	fields := config.Fields()
	assert.Equal(t, NewCreator(ImplicitBatch, nil).FieldNames().Names(), fields.Names())

	p := NewCreator(ImplicitBatch, nil).Create("nms", fields)
	assert.True(t, p.Parameters().PadOutputBoxesPerClass)
	assert.Equal(t, int32(5), p.Parameters().NumOutputBoxesPerClass)
	assert.False(t, p.Parameters().ClipBoxes)
}

func TestConfigMarshal(t *testing.T) {
	config := DefaultConfig()
	config.ScoreThreshold = 0.3

	data, err := config.Marshal()
	require.NoError(t, err)
	loaded, err := LoadConfig(writeConfig(t, string(data)))
	require.NoError(t, err)

	assert.Equal(t, config, *loaded)
}
