package onnx

import "errors"

// Sentinel errors for the ONNX runtime adapter.
var (
	ErrModelPath   = errors.New("onnx: model path is empty")
	ErrEnvironment = errors.New("onnx: runtime environment unavailable")
	ErrTopology    = errors.New("onnx: unexpected model topology")
	ErrOutputType  = errors.New("onnx: probability output is not float32")
)
