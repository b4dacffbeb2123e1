package statistics

import (
	"sync"
	"time"

	"github.com/caio/go-tdigest"
)

type StatHolder interface {
	// add a measurement in milliseconds to the stat holder
	Add(statType StatisticsType, value float64) error

	RecordStartTime(statType StatisticsType, t time.Time)
	GetTimeQuantile(statType StatisticsType, q float64) float64
	GetTimeData() *StartTimes
}

// DigestHolder keeps per-session routing time digests.
type DigestHolder struct {
	mu      sync.Mutex
	digests map[StatisticsType]*tdigest.TDigest
	times   StartTimes
}

var _ StatHolder = &DigestHolder{}

func NewDigestHolder() *DigestHolder {
	return &DigestHolder{digests: map[StatisticsType]*tdigest.TDigest{}}
}

func (h *DigestHolder) Add(statType StatisticsType, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	td, ok := h.digests[statType]
	if !ok {
		var err error
		if td, err = tdigest.New(); err != nil {
			return err
		}
		h.digests[statType] = td
	}
	return td.Add(value)
}

func (h *DigestHolder) RecordStartTime(statType StatisticsType, t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch statType {
	case StatisticsTypeTotal:
		h.times.TotalStart = t
	case StatisticsTypeEngine:
		h.times.EngineStart = t
	}
}

func (h *DigestHolder) GetTimeQuantile(statType StatisticsType, q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	td, ok := h.digests[statType]
	if !ok || td.Count() == 0 {
		return 0
	}
	return td.Quantile(q)
}

func (h *DigestHolder) GetTimeData() *StartTimes {
	return &h.times
}
