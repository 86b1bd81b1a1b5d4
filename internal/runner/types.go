package runner

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"contendq/internal/idgen"
	"contendq/internal/scenario"
)

type Config struct {
	BaseURL    string
	NumUsers   int
	TimeoutSec int

	// Exactly one of Duration and Iterations is set. Iterations is a quota
	// shared by all users, not a per-user count.
	Duration   time.Duration
	Iterations int

	Suite   string
	Weights map[string]float64
	Headers map[string]string
	Params  scenario.Params

	// Reporting
	OutPrefix string
	Format    string
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.NumUsers < 1 {
		return fmt.Errorf("users must be at least 1, got %d", c.NumUsers)
	}
	if c.TimeoutSec < 1 {
		return fmt.Errorf("timeout must be at least 1s, got %d", c.TimeoutSec)
	}
	if c.Duration < 0 || c.Iterations < 0 {
		return errors.New("duration and iterations cannot be negative")
	}
	hasDur, hasIter := c.Duration > 0, c.Iterations > 0
	if hasDur == hasIter {
		return errors.New("exactly one of duration or iterations must be set")
	}
	if c.Params.QuitProbability < 0 || c.Params.QuitProbability > 1 {
		return fmt.Errorf("quit probability %v is outside [0,1]", c.Params.QuitProbability)
	}
	return nil
}

// ParseHeaders turns "Key: Value" pairs into a header map.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, h := range pairs {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Key: Value\"", h)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

type UserState int32

const (
	Idle UserState = iota
	Running
	Stopped
)

func (s UserState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// VirtualUser is one closed-loop client. Only its own goroutine runs
// scenarios with it; State and Iterations may be read from anywhere.
type VirtualUser struct {
	ID    string
	Index int

	state      atomic.Int32
	iterations atomic.Int64
	ids        *idgen.Generator
	env        *scenario.Env
}

func (vu *VirtualUser) State() UserState {
	return UserState(vu.state.Load())
}

func (vu *VirtualUser) Iterations() int64 {
	return vu.iterations.Load()
}

func (vu *VirtualUser) setState(s UserState) {
	vu.state.Store(int32(s))
}

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Elapsed     time.Duration
	Progress    float64 // 0..1 of duration or iteration quota
	ActiveUsers int64

	Operations int64
	Successful int64
	Conflicts  int64
	NotFound   int64
	Unexpected int64
	Skipped    int64

	HTTPReqs        int64
	ServerErrors    int64
	TransportErrors int64
	HealthyRate     float64
	ChecksRate      float64

	// http_req_duration percentiles for the UI (cheap copy)
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64

	Done bool
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot
