// Package providers - CUDA device and stream selection.
package providers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-combinednms/inference"
)

// CUDAOptions selects the device and stream the suppression kernel is launched on.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID"          yaml:"deviceID"`
	// Defines the compute stream for the inference to run on, as a cudaStream_t address such as
	// "0x7f3a2c000b10". Empty selects the device's default stream.
	UserComputeStream string `json:"userComputeStream" yaml:"userComputeStream"`
}

// Stream parses UserComputeStream into the token handed to Enqueue.
//
// Returns:
//   - inference.Stream: The stream token, 0 for the default stream.
//   - error: An error if the device ID is negative or the address is not an unsigned integer.
func (o CUDAOptions) Stream() (inference.Stream, error) {
	if o.DeviceID < 0 {
		return 0, errors.Errorf("invalid CUDA device ID %d", o.DeviceID)
	}
	address := strings.TrimSpace(o.UserComputeStream)
	if address == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(address, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing CUDA stream address %q", o.UserComputeStream)
	}
	return inference.Stream(v), nil
}
