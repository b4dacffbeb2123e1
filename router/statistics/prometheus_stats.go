package statistics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/caio/go-tdigest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatisticsType selects which part of routing a measurement covers.
type StatisticsType string

const (
	// StatisticsTypeTotal covers a whole Route call, extraction included.
	StatisticsTypeTotal = StatisticsType("total")
	// StatisticsTypeEngine covers the routing engine only.
	StatisticsTypeEngine = StatisticsType("engine")
)

// StartTimes holds the start times of the phases of the current statement.
type StartTimes struct {
	TotalStart  time.Time
	EngineStart time.Time
}

type Statistics struct {
	Quantiles         []float64
	QuantilesStr      []string
	NeedToCollectData bool

	mu      sync.Mutex
	total   map[StatisticsType]*tdigest.TDigest
	engines map[string]*tdigest.TDigest
}

var QueryStatistics = Statistics{}

var (
	routeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "shardplan_route_duration_seconds",
		Help: "Statement routing duration in seconds, by routing engine",
		Buckets: []float64{
			0.00001, // 10µs
			0.00005, // 50µs
			0.0001,  // 100µs
			0.0005,  // 500µs
			0.001,   // 1ms
			0.005,   // 5ms
			0.01,    // 10ms
			0.05,    // 50ms
			0.1,     // 100ms
		},
	}, []string{"engine"})

	routeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shardplan_routes_total",
		Help: "Total number of routed statements, by routing engine",
	}, []string{"engine"})

	routeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shardplan_route_errors_total",
		Help: "Total number of statements that failed to route, by error code",
	}, []string{"code"})
)

// InitStatistics sets the reported quantiles and drops collected digests.
func InitStatistics(q []float64) {
	QueryStatistics.mu.Lock()
	defer QueryStatistics.mu.Unlock()

	QueryStatistics.Quantiles = q
	QueryStatistics.NeedToCollectData = len(q) > 0
	QueryStatistics.total = map[StatisticsType]*tdigest.TDigest{}
	QueryStatistics.engines = map[string]*tdigest.TDigest{}
}

func InitStatisticsStr(q []string) error {
	quantiles := make([]float64, len(q))
	for i, qStr := range q {
		var err error
		quantiles[i], err = strconv.ParseFloat(qStr, 64)
		if err != nil {
			return fmt.Errorf("could not parse time quantile to float: \"%s\"", qStr)
		}
	}
	InitStatistics(quantiles)
	QueryStatistics.QuantilesStr = q
	return nil
}

func GetQuantiles() *[]float64 {
	return &QueryStatistics.Quantiles
}

func GetQuantilesStr() *[]string {
	return &QueryStatistics.QuantilesStr
}

func RecordStartTime(statType StatisticsType, t time.Time, h StatHolder) {
	if h != nil {
		h.RecordStartTime(statType, t)
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// RecordFinishedRoute accounts a statement routed by engine at time t.
// Counters are always kept, digests only when quantiles are configured.
func RecordFinishedRoute(engine string, t time.Time, h StatHolder) {
	routeTotal.WithLabelValues(engine).Inc()
	if h == nil {
		return
	}
	st := h.GetTimeData()
	if st == nil {
		return
	}

	if !st.TotalStart.IsZero() {
		d := t.Sub(st.TotalStart)
		routeDuration.WithLabelValues(engine).Observe(d.Seconds())
		if QueryStatistics.NeedToCollectData {
			_ = h.Add(StatisticsTypeTotal, millis(d))
			QueryStatistics.add(StatisticsTypeTotal, engine, millis(d))
		}
		st.TotalStart = time.Time{}
	}
	if !st.EngineStart.IsZero() {
		d := t.Sub(st.EngineStart)
		if QueryStatistics.NeedToCollectData {
			_ = h.Add(StatisticsTypeEngine, millis(d))
			QueryStatistics.add(StatisticsTypeEngine, "", millis(d))
		}
		st.EngineStart = time.Time{}
	}
}

func RecordRouteError(code string) {
	routeErrors.WithLabelValues(code).Inc()
}

func (s *Statistics) add(statType StatisticsType, engine string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == nil {
		s.total = map[StatisticsType]*tdigest.TDigest{}
		s.engines = map[string]*tdigest.TDigest{}
	}
	if s.total[statType] == nil {
		s.total[statType], _ = tdigest.New()
	}
	_ = s.total[statType].Add(value)

	if engine == "" {
		return
	}
	if s.engines[engine] == nil {
		s.engines[engine], _ = tdigest.New()
	}
	_ = s.engines[engine].Add(value)
}

func GetTimeQuantile(statType StatisticsType, q float64, h StatHolder) float64 {
	if !QueryStatistics.NeedToCollectData || h == nil {
		return 0
	}
	return h.GetTimeQuantile(statType, q)
}

func GetTotalTimeQuantile(statType StatisticsType, q float64) float64 {
	QueryStatistics.mu.Lock()
	defer QueryStatistics.mu.Unlock()

	td := QueryStatistics.total[statType]
	if !QueryStatistics.NeedToCollectData || td == nil || td.Count() == 0 {
		return 0
	}
	return td.Quantile(q)
}

// GetEngineTimeQuantile reports the end-to-end routing time of statements
// routed by engine.
func GetEngineTimeQuantile(engine string, q float64) float64 {
	QueryStatistics.mu.Lock()
	defer QueryStatistics.mu.Unlock()

	td := QueryStatistics.engines[engine]
	if !QueryStatistics.NeedToCollectData || td == nil || td.Count() == 0 {
		return 0
	}
	return td.Quantile(q)
}
