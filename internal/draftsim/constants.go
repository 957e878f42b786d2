package draftsim

import "time"

// Messages the service sets when an inference run is published.
const (
	messageRanked       = "Inference done"
	messageNoCandidates = "no eligible candidates"
)

// Defaults applied by Run when the config leaves a field zero.
const (
	DefaultTopK          = 5
	DefaultTimeout       = 10 * time.Second
	DefaultSettleTimeout = 5 * time.Second
	MaxActions           = 20
)

const percentile95 = 0.95
