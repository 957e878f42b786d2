package draftsim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Drafts        int           // Number of drafts to play
	Actions       int           // Picks and bans per draft, at most 20
	TopK          int           // Expected recommendations per role
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for an inference result
	Seed          uint64        // Seed for hero selection; 0 picks one
	LogFile       string        // Log file for simulation output
	Verbose       bool          // Log every frame
}

// Hero is the catalog entry served by the API.
type Hero struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	PrimaryLane int    `json:"primaryLane"`
	Eligible    bool   `json:"inRealLogs"`
}

// Recommendation is one ranked candidate.
type Recommendation struct {
	Hero  Hero    `json:"hero"`
	Score float64 `json:"score"`
	Role  string  `json:"role"`
}

// Draft is the draft view returned by the API and the stream.
type Draft struct {
	SessionID       string                      `json:"session_id"`
	Generation      uint64                      `json:"generation"`
	Status          string                      `json:"status"`
	Message         string                      `json:"message"`
	Allies          []*Hero                     `json:"allies"`
	Enemies         []*Hero                     `json:"enemies"`
	Bans            []*Hero                     `json:"bans"`
	Recommendations map[string][]Recommendation `json:"recommendations"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// Frame is one WebSocket message.
type Frame struct {
	Type    string `json:"type"`
	Payload Draft  `json:"payload"`
}

// Stats holds simulation statistics.
type Stats struct {
	DraftsPlayed int
	Actions      int
	Settled      int
	Ranked       int
	Empty        int
	Other        int
	Violations   int
	Latencies    []time.Duration
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
