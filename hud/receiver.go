package hud

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	collectormetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"

	"github.com/DrFREEST/omcm/state"
)

const maxOTLPBodySize = 4 * 1024 * 1024 // 4 MB

// tokenUsageMetric is the Claude Code telemetry metric that carries real
// token consumption, the ground truth for the savings calculation.
const tokenUsageMetric = "claude_code.token.usage"

// TokenSink receives accumulated Claude token totals whenever the receiver
// has folded new token.usage data points.
type TokenSink interface {
	UpdateClaudeTokens(input, output uint64) error
}

// FusionTokenSink feeds token totals into the fusion store's actual-token
// snapshot. SessionID may be empty for the global aggregate.
type FusionTokenSink struct {
	Store     *state.FusionStore
	SessionID string
}

func (s *FusionTokenSink) UpdateClaudeTokens(input, output uint64) error {
	_, err := s.Store.UpdateSavingsFromTokens(s.SessionID, map[string]state.TokenCount{
		"claude": {Input: input, Output: output},
	})
	return err
}

// Receiver handles incoming OTLP HTTP/protobuf metric exports. Decoded
// series land in a MetricBuffer for display; token.usage deltas additionally
// accumulate into running totals pushed to the TokenSink.
type Receiver struct {
	mux     *http.ServeMux
	buf     *MetricBuffer
	sink    TokenSink
	limiter *rate.Limiter

	mu          sync.Mutex
	tokenInput  uint64
	tokenOutput uint64
}

func NewReceiver(buf *MetricBuffer, sink TokenSink) *Receiver {
	r := &Receiver{
		mux:     http.NewServeMux(),
		buf:     buf,
		sink:    sink,
		limiter: rate.NewLimiter(100, 20), // 100 req/s, burst 20
	}
	r.mux.HandleFunc("POST /v1/metrics", r.handleMetrics)
	return r
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	r.mux.ServeHTTP(w, req)
}

func (r *Receiver) handleMetrics(w http.ResponseWriter, req *http.Request) {
	body, err := readLimited(req, maxOTLPBodySize)
	if err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var exportReq collectormetrics.ExportMetricsServiceRequest
	if err := proto.Unmarshal(body, &exportReq); err != nil {
		http.Error(w, "invalid protobuf", http.StatusBadRequest)
		return
	}

	var tokenDirty bool
	for _, rm := range exportReq.ResourceMetrics {
		agent := extractServiceName(rm.Resource)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				for _, dp := range extractDataPoints(m) {
					r.buf.Update(MetricSummary{
						Name:       m.Name,
						Agent:      agent,
						Value:      dp.value,
						Attributes: dp.attrs,
					}, dp.isDelta)

					if m.Name == tokenUsageMetric && dp.value > 0 {
						if r.accumulateTokens(dp) {
							tokenDirty = true
						}
					}
				}
			}
		}
	}

	if tokenDirty && r.sink != nil {
		r.mu.Lock()
		in, out := r.tokenInput, r.tokenOutput
		r.mu.Unlock()
		// Sink failures don't fail the export: the exporter would retry and
		// double-count the deltas.
		_ = r.sink.UpdateClaudeTokens(in, out)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "{}")
}

func (r *Receiver) accumulateTokens(dp dataPoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch dp.attrs["type"] {
	case "input":
		r.tokenInput += uint64(dp.value)
	case "output":
		r.tokenOutput += uint64(dp.value)
	default:
		return false
	}
	return true
}

type dataPoint struct {
	value   float64
	attrs   map[string]string
	isDelta bool
}

func extractDataPoints(m *metricspb.Metric) []dataPoint {
	switch d := m.Data.(type) {
	case *metricspb.Metric_Sum:
		isDelta := d.Sum.AggregationTemporality == metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA
		return numberDataPoints(d.Sum.DataPoints, isDelta)
	case *metricspb.Metric_Gauge:
		return numberDataPoints(d.Gauge.DataPoints, false)
	}
	return nil
}

func numberDataPoints(dps []*metricspb.NumberDataPoint, isDelta bool) []dataPoint {
	result := make([]dataPoint, 0, len(dps))
	for _, dp := range dps {
		var val float64
		switch v := dp.Value.(type) {
		case *metricspb.NumberDataPoint_AsDouble:
			val = v.AsDouble
		case *metricspb.NumberDataPoint_AsInt:
			val = float64(v.AsInt)
		}
		result = append(result, dataPoint{
			value:   val,
			attrs:   flattenAttributes(dp.Attributes),
			isDelta: isDelta,
		})
	}
	return result
}

func readLimited(req *http.Request, maxBytes int64) ([]byte, error) {
	limited := http.MaxBytesReader(nil, req.Body, maxBytes)
	defer limited.Close()
	return io.ReadAll(limited)
}

func extractServiceName(res *resourcepb.Resource) string {
	if res == nil {
		return "unknown"
	}
	for _, attr := range res.Attributes {
		if attr.Key == "service.name" {
			if sv, ok := attr.Value.Value.(*commonpb.AnyValue_StringValue); ok {
				return truncate(sv.StringValue, 64)
			}
		}
	}
	return "unknown"
}

func flattenAttributes(attrs []*commonpb.KeyValue) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	result := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		result[kv.Key] = truncate(anyValueToString(kv.Value), maxAttrValueLen)
	}
	return result
}

func anyValueToString(v *commonpb.AnyValue) string {
	if v == nil {
		return ""
	}
	switch val := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_IntValue:
		return fmt.Sprintf("%d", val.IntValue)
	case *commonpb.AnyValue_DoubleValue:
		return fmt.Sprintf("%g", val.DoubleValue)
	case *commonpb.AnyValue_BoolValue:
		return fmt.Sprintf("%t", val.BoolValue)
	default:
		return fmt.Sprintf("%v", v.Value)
	}
}
