package admin

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wolfman30/docconnect-ai/internal/observability/metrics"
)

// LLMLatencyBucket is one non-cumulative histogram bucket.
type LLMLatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// LLMLatencySnapshot summarises completion latency since process start.
type LLMLatencySnapshot struct {
	Total   int64              `json:"total"`
	P90Ms   float64            `json:"p90_ms"`
	P95Ms   float64            `json:"p95_ms"`
	Buckets []LLMLatencyBucket `json:"buckets,omitempty"`
}

// DashboardResponse is the admin overview.
type DashboardResponse struct {
	GeneratedAt      string             `json:"generated_at"`
	Doctors          int                `json:"doctors"`
	BookingsTotal    int                `json:"bookings_total"`
	BookingsUpcoming int                `json:"bookings_upcoming"`
	ChatSessions     int                `json:"chat_sessions"`
	ChatMessages     int                `json:"chat_messages"`
	OpenInquiries    int                `json:"inquiries_last_7_days"`
	ChatTurns        map[string]int64   `json:"chat_turns"`
	ActiveWebSockets int                `json:"active_websockets"`
	LLMLatency       LLMLatencySnapshot `json:"llm_latency"`
}

// Dashboard returns store counts plus live metrics.
// GET /admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var resp DashboardResponse
	err := h.db.QueryRowContext(r.Context(), `
		SELECT
			(SELECT COUNT(*) FROM doctors),
			(SELECT COUNT(*) FROM bookings),
			(SELECT COUNT(*) FROM bookings WHERE appointment_date >= CURRENT_DATE),
			(SELECT COUNT(DISTINCT session_id) FROM chatbot_messages),
			(SELECT COUNT(*) FROM chatbot_messages),
			(SELECT COUNT(*) FROM patient_inquiries WHERE created_at >= now() - interval '7 days')`,
	).Scan(&resp.Doctors, &resp.BookingsTotal, &resp.BookingsUpcoming, &resp.ChatSessions, &resp.ChatMessages, &resp.OpenInquiries)
	if err != nil {
		h.logger.Error("admin: dashboard counts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	resp.ChatTurns = snapshotChatTurns(h.gatherer)
	resp.LLMLatency = snapshotLLMLatency(h.gatherer)
	if h.sessions != nil {
		resp.ActiveWebSockets = h.sessions.ActiveSessions()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func findFamily(gatherer prometheus.Gatherer, name string) *dto.MetricFamily {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return nil
	}
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func snapshotChatTurns(gatherer prometheus.Gatherer) map[string]int64 {
	out := map[string]int64{}
	family := findFamily(gatherer, metrics.ChatTurnsMetricName)
	if family == nil {
		return out
	}
	for _, metric := range family.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		out[labelValue(metric, "outcome")] += int64(metric.GetCounter().GetValue())
	}
	return out
}

func snapshotLLMLatency(gatherer prometheus.Gatherer) LLMLatencySnapshot {
	family := findFamily(gatherer, metrics.LLMLatencyMetricName)
	if family == nil {
		return LLMLatencySnapshot{}
	}

	// Aggregate across models, successful calls only.
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil || labelValue(metric, "status") != "ok" {
			continue
		}
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LLMLatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper)+1)
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	// Client histograms omit the +Inf bucket; its count is the sample count.
	if _, ok := cumulativeByUpper[math.Inf(1)]; !ok {
		cumulativeByUpper[math.Inf(1)] = sampleCount
		uppers = append(uppers, math.Inf(1))
	}
	sort.Float64s(uppers)

	buckets := make([]LLMLatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFinite float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum
		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, LLMLatencyBucket{
					LeSeconds: lastFinite,
					Label:     fmt.Sprintf(">%s", formatSeconds(lastFinite)),
					Count:     count,
				})
			}
			continue
		}
		lastFinite = upper
		buckets = append(buckets, LLMLatencyBucket{LeSeconds: upper, Count: count})
	}

	return LLMLatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		Buckets: buckets,
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// histogramQuantile interpolates linearly inside the bucket holding q.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 || len(uppers) == 0 {
		return 0
	}
	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/bucketCount, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return prevUpper
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 1:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		return fmt.Sprintf("%.0fs", seconds)
	}
}
