package publisher

// Option applies a configuration option to the StreamPublisher.
type Option func(*StreamPublisher)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(p *StreamPublisher) {
		if stream != "" {
			p.stream = stream
		}
	}
}

// WithMaxLen caps the stream length, approximately.
func WithMaxLen(n int64) Option {
	return func(p *StreamPublisher) {
		if n > 0 {
			p.maxLen = n
		}
	}
}
