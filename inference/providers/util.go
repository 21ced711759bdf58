// Package providers - Utility functions.
package providers

import (
	"os"
	"runtime"
)

// SharedLibPathEnv overrides the onnxruntime shared library location.
const SharedLibPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the onnxruntime shared library for the current platform.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath() string {
	if path := os.Getenv(SharedLibPathEnv); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		if runtime.GOARCH == "amd64" {
			return "../third_party/onnxruntime.dll"
		}
	}
	if runtime.GOOS == "darwin" {
		return "./third_party/libonnxruntime.1.23.0.dylib"
	}
	if runtime.GOOS == "linux" {
		if runtime.GOARCH == "arm64" {
			return "../third_party/onnxruntime_arm64.so"
		}
		return "../third_party/onnxruntime.so"
	}
	panic("Unable to find a version of the onnxruntime library supporting this system.")
}
