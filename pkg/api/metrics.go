package api

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/storage"
)

const metricPrefix = "touchdown_"

// handleMetrics exposes the landing summary in the Prometheus text format.
// Only available metrics get a value family; availability itself is always reported.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	store := s.Store()
	sum := landing.Summarize(landing.NewExtractor(store, s.opts...))

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range metricFamilies(sum, store) {
		if err := enc.Encode(mf); err != nil {
			slog.Error("api: encode metrics failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

func metricFamilies(sum *landing.Summary, store *storage.Store) []*dto.MetricFamily {
	metrics := sum.Metrics()

	var families []*dto.MetricFamily
	available := gaugeFamily(metricPrefix+"metric_available", "Whether a landing metric could be computed (1) or not (0).")
	for _, m := range metrics {
		v := 0.0
		if m.Available() {
			v = 1
			families = append(families, gaugeFamily(metricPrefix+m.Name, "Landing metric "+m.Name+" in "+m.Unit+".", gauge(m.Value)))
		}
		available.Metric = append(available.Metric, gauge(v, "metric", m.Name))
	}
	families = append(families, available)

	samples := gaugeFamily(metricPrefix+"samples", "Samples held per signal.")
	for _, signal := range store.Signals() {
		samples.Metric = append(samples.Metric, gauge(float64(len(store.FilterByID(signal))), "signal", signal))
	}
	families = append(families, samples)

	// the text encoder rejects a family without samples
	nonEmpty := families[:0]
	for _, mf := range families {
		if len(mf.Metric) > 0 {
			nonEmpty = append(nonEmpty, mf)
		}
	}
	return nonEmpty
}

func gaugeFamily(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// gauge builds one sample; labels are name/value pairs
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
