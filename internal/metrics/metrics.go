package metrics

import (
	"net/http"
	"picup/internal/model"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
}

// New builds a recorder on its own registry. inFlight and queued are
// sampled on every scrape.
func New(inFlight, queued func() int) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "picup",
			Name:      "uploads_total",
			Help:      "Upload attempts by outcome.",
		}, []string{"result", "kind", "code"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "picup",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes of successfully uploaded files.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "picup",
			Name:      "upload_duration_seconds",
			Help:      "Duration of upload attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.uploads,
		m.bytes,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if inFlight != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "picup",
			Name:      "uploads_in_flight",
			Help:      "Uploads currently being sent.",
		}, func() float64 { return float64(inFlight()) }))
	}

	if queued != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "picup",
			Name:      "uploads_queued",
			Help:      "Detected files waiting for a free upload worker.",
		}, func() float64 { return float64(queued()) }))
	}

	return m
}

func (m *Metrics) Record(result model.UploadResult) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}

	code := ""
	if result.StatusCode != 0 {
		code = strconv.Itoa(result.StatusCode)
	}

	m.uploads.WithLabelValues(outcome, string(result.Kind), code).Inc()
	m.duration.Observe(result.Duration.Seconds())
	if result.Success {
		m.bytes.Add(float64(result.Size))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
