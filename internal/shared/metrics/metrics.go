package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	evaluationStartedTotal   atomic.Uint64
	evaluationCompletedTotal atomic.Uint64
	evaluationFailedTotal    atomic.Uint64
	parseSentinelsTotal      atomic.Uint64

	providerCallsTotal  = newLabeledCounter("provider", "outcome")
	phaseCompletedTotal = newLabeledCounter("phase_completed")
	parseStrategyTotal  = newLabeledCounter("phase", "strategy")
	workerMessagesTotal = newLabeledCounter("outcome")
	evaluationDuration  = newHistogram([]float64{1000, 2500, 5000, 10000, 20000, 30000, 60000, 90000, 120000})
)

// IncEvaluationStarted increments the started counter.
func IncEvaluationStarted() {
	evaluationStartedTotal.Add(1)
}

// IncEvaluationCompleted increments the completed counter.
func IncEvaluationCompleted() {
	evaluationCompletedTotal.Add(1)
}

// IncEvaluationFailed increments the failed counter.
func IncEvaluationFailed() {
	evaluationFailedTotal.Add(1)
}

// IncProviderCall counts one provider round-trip. outcome is "ok" or "error".
func IncProviderCall(provider, outcome string) {
	providerCallsTotal.Inc(provider, outcome)
}

// IncPhaseCompleted counts accepted results by phase label.
func IncPhaseCompleted(label string) {
	phaseCompletedTotal.Inc(label)
}

// IncParseStrategy counts which parse strategy produced a phase result.
func IncParseStrategy(phase, strategy string) {
	parseStrategyTotal.Inc(phase, strategy)
}

// AddParseSentinels counts questions that could not be recovered from a reply.
func AddParseSentinels(n int) {
	if n > 0 {
		parseSentinelsTotal.Add(uint64(n))
	}
}

// IncWorkerMessage counts queue messages by outcome: received, completed, failed or
// deleted_unrecoverable.
func IncWorkerMessage(outcome string) {
	workerMessagesTotal.Inc(outcome)
}

// ObserveEvaluationDurationMs records an evaluation duration in milliseconds.
func ObserveEvaluationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	evaluationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "evaluation_started_total", "Total evaluations started", evaluationStartedTotal.Load())
	writeCounter(&buf, "evaluation_completed_total", "Total evaluations completed", evaluationCompletedTotal.Load())
	writeCounter(&buf, "evaluation_failed_total", "Total evaluations failed", evaluationFailedTotal.Load())
	writeLabeledCounter(&buf, "provider_calls_total", "Provider round-trips by outcome", providerCallsTotal)
	writeLabeledCounter(&buf, "evaluation_phase_completed_total", "Accepted results by completed phases", phaseCompletedTotal)
	writeLabeledCounter(&buf, "parse_strategy_total", "Phase results by parse strategy", parseStrategyTotal)
	writeLabeledCounter(&buf, "worker_messages_total", "Queue messages handled by the worker", workerMessagesTotal)
	writeCounter(&buf, "parse_sentinels_total", "Questions that could not be recovered from provider replies", parseSentinelsTotal.Load())
	writeHistogram(&buf, "evaluation_duration_ms", "Evaluation duration in milliseconds", evaluationDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newLabeledCounter(labels ...string) *labeledCounter {
	return &labeledCounter{labels: labels, values: make(map[string]uint64)}
}

func (c *labeledCounter) Inc(values ...string) {
	var b bytes.Buffer
	for i, name := range c.labels {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%s", name, strconv.Quote(v))
	}
	c.mu.Lock()
	c.values[b.String()]++
	c.mu.Unlock()
}

func (c *labeledCounter) snapshot() ([]string, map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	keys := make([]string, 0, len(c.values))
	for k, v := range c.values {
		out[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, out
}

func writeLabeledCounter(buf *bytes.Buffer, name, help string, c *labeledCounter) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := c.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s} %d\n", name, k, values[k])
	}
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
