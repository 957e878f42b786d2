// Package scoring wraps the win-probability model behind a client that owns
// the runtime handle and validates every batch and output shape.
package scoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/draftnexus/internal/domain/features"
)

// OutputWidth is the per-candidate width of the probability output.
const OutputWidth = 2

// positiveClass is the output column holding the win probability.
const positiveClass = 1

// Output is the probability tensor produced by a Runtime.
type Output struct {
	Data  []float32
	Shape []int64
}

// Runtime runs the model on a batch. Implementations return the probability
// output, shaped [rows, 2].
type Runtime interface {
	Run(ctx context.Context, batch features.Batch) (Output, error)
	Close() error
}

// Factory acquires a Runtime.
type Factory func(ctx context.Context) (Runtime, error)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSerializedCalls guards Run with a mutex for runtimes that are not reentrant.
func WithSerializedCalls(enabled bool) Option {
	return func(c *Client) {
		c.serialize = enabled
	}
}

// Client owns a Runtime handle from Open until Close.
type Client struct {
	mu        sync.RWMutex // guards rt; held for reading across Run
	callMu    sync.Mutex
	serialize bool
	rt        Runtime
}

// NewClient creates a client with no runtime attached.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open acquires the runtime. Opening an already open client fails.
func (c *Client) Open(ctx context.Context, factory Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rt != nil {
		return ErrAlreadyOpen
	}
	rt, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScoringUnavailable, err)
	}
	c.rt = rt
	return nil
}

// Ready reports whether a runtime is attached.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rt != nil
}

// Close releases the runtime once, waiting for in-flight calls. Further
// calls are no-ops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rt == nil {
		return nil
	}
	err := c.rt.Close()
	c.rt = nil
	if err != nil {
		return fmt.Errorf("close scoring runtime: %w", err)
	}
	return nil
}

// Score returns one win probability per batch row, in row order.
func (c *Client) Score(ctx context.Context, batch features.Batch) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rt == nil {
		return nil, ErrScoringUnavailable
	}
	if batch.Rows <= 0 || batch.Cols != features.VectorLen || len(batch.Data) != batch.Rows*features.VectorLen {
		return nil, fmt.Errorf("%w: malformed batch %dx%d with %d values",
			ErrScoringRuntime, batch.Rows, batch.Cols, len(batch.Data))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringRuntime, err)
	}

	if c.serialize {
		c.callMu.Lock()
		defer c.callMu.Unlock()
	}

	out, err := c.rt.Run(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringRuntime, err)
	}
	return decode(out, batch.Rows)
}

func decode(out Output, rows int) ([]float32, error) {
	if len(out.Shape) != 2 || out.Shape[0] != int64(rows) || out.Shape[1] != OutputWidth {
		return nil, fmt.Errorf("%w: output shape %v, want [%d %d]", ErrScoringRuntime, out.Shape, rows, OutputWidth)
	}
	if len(out.Data) != rows*OutputWidth {
		return nil, fmt.Errorf("%w: output has %d values, want %d", ErrScoringRuntime, len(out.Data), rows*OutputWidth)
	}

	scores := make([]float32, rows)
	for i := range scores {
		scores[i] = out.Data[i*OutputWidth+positiveClass]
	}
	return scores, nil
}
