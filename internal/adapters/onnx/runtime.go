// Package onnx runs the draft model through ONNX Runtime.
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/okian/draftnexus/internal/domain/features"
	"github.com/okian/draftnexus/internal/domain/scoring"
	"github.com/okian/draftnexus/pkg/logger"
)

// probabilityOutput is the model output holding class probabilities.
const probabilityOutput = 1

// envMu guards the process-wide ONNX Runtime environment.
var (
	envMu   sync.Mutex
	envRefs int
)

// Option applies a configuration option to the Runtime.
type Option func(*Runtime)

// WithLibraryPath points at the onnxruntime shared library.
func WithLibraryPath(path string) Option {
	return func(r *Runtime) {
		r.libraryPath = path
	}
}

// WithIntraOpThreads caps the threads used inside one operator.
func WithIntraOpThreads(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.intraOpThreads = n
		}
	}
}

// Runtime is a scoring.Runtime backed by an ONNX Runtime session.
type Runtime struct {
	modelPath      string
	libraryPath    string
	intraOpThreads int

	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	closeOnce  sync.Once
	log        logger.Logger
}

// Factory returns a scoring.Factory that opens modelPath.
func Factory(modelPath string, opts ...Option) scoring.Factory {
	return func(ctx context.Context) (scoring.Runtime, error) {
		return Open(ctx, modelPath, opts...)
	}
}

// Open loads the model and checks its topology: one float input of width
// features.VectorLen and at least two outputs.
func Open(ctx context.Context, modelPath string, opts ...Option) (*Runtime, error) {
	if modelPath == "" {
		return nil, ErrModelPath
	}
	r := &Runtime{
		modelPath: modelPath,
		log:       logger.Named("onnx"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := acquireEnvironment(r.libraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("read model info %s: %w", modelPath, err)
	}
	if err := checkTopology(inputs, outputs); err != nil {
		releaseEnvironment()
		return nil, err
	}
	r.inputName = inputs[0].Name
	r.outputName = outputs[probabilityOutput].Name

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer func() { _ = sessionOpts.Destroy() }()
	if r.intraOpThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(r.intraOpThreads); err != nil {
			releaseEnvironment()
			return nil, fmt.Errorf("session options: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{r.inputName}, []string{r.outputName}, sessionOpts)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("create session %s: %w", modelPath, err)
	}
	r.session = session

	r.log.Info(ctx, "model loaded",
		logger.String("model", modelPath),
		logger.String("input", r.inputName),
		logger.String("output", r.outputName))
	return r, nil
}

// Run scores batch. The session call itself is not interruptible; ctx is
// checked before it starts.
func (r *Runtime) Run(ctx context.Context, batch features.Batch) (scoring.Output, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Output{}, err
	}

	input, err := ort.NewTensor(ort.NewShape(int64(batch.Rows), int64(batch.Cols)), batch.Data)
	if err != nil {
		return scoring.Output{}, fmt.Errorf("input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := r.session.Run([]ort.Value{input}, outputs); err != nil {
		return scoring.Output{}, fmt.Errorf("session run: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	probs, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return scoring.Output{}, fmt.Errorf("%w: %T", ErrOutputType, outputs[0])
	}

	data := probs.GetData()
	out := scoring.Output{
		Data:  make([]float32, len(data)),
		Shape: append([]int64(nil), probs.GetShape()...),
	}
	copy(out.Data, data)
	return out, nil
}

// Close destroys the session. Safe to call more than once.
func (r *Runtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.session != nil {
			err = r.session.Destroy()
		}
		releaseEnvironment()
	})
	return err
}

func checkTopology(inputs, outputs []ort.InputOutputInfo) error {
	if len(inputs) != 1 {
		return fmt.Errorf("%w: want 1 input, got %d", ErrTopology, len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return fmt.Errorf("%w: input %s is %s", ErrTopology, in.Name, in.DataType)
	}
	if dims := in.Dimensions; len(dims) != 2 || (dims[1] != features.VectorLen && dims[1] > 0) {
		return fmt.Errorf("%w: input %s shape %v", ErrTopology, in.Name, in.Dimensions)
	}
	if len(outputs) <= probabilityOutput {
		return fmt.Errorf("%w: want at least %d outputs, got %d", ErrTopology, probabilityOutput+1, len(outputs))
	}
	if out := outputs[probabilityOutput]; out.OrtValueType != ort.ONNXTypeTensor || out.DataType != ort.TensorElementDataTypeFloat {
		return fmt.Errorf("%w: output %s is not a float tensor", ErrTopology, out.Name)
	}
	return nil
}

func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("%w: %w", ErrEnvironment, err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}
