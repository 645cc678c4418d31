// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chinyuchan/platform/log"
)

const namespace = "platform"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the metrics singleton to the
// prometheus implementation. Once switched it stays switched.
func InitializePrometheusMetrics() {
	if _, ok := service.(*prometheusService); !ok {
		service = newPrometheusService()
	}
}

type prometheusService struct {
	meters sync.Map
}

func newPrometheusService() Service {
	return &prometheusService{}
}

// getOrCreate memoizes meters by name so repeated lookups share one
// registered collector.
func getOrCreate[T any](m *sync.Map, name string, create func() T) T {
	if v, ok := m.Load(name); ok {
		return v.(T)
	}
	meter := create()
	if v, loaded := m.LoadOrStore(name, meter); loaded {
		return v.(T)
	}
	return meter
}

func register(c prometheus.Collector, name string) {
	if err := prometheus.Register(c); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
}

func floatBuckets(buckets []int64) []float64 {
	fb := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		fb = append(fb, float64(b))
	}
	return fb
}

func (s *prometheusService) CounterMeter(name string) CountMeter {
	return getOrCreate(&s.meters, name, func() CountMeter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		register(c, name)
		return &promCounter{c}
	})
}

func (s *prometheusService) CounterVecMeter(name string, labels []string) CountVecMeter {
	return getOrCreate(&s.meters, name, func() CountVecMeter {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		register(c, name)
		return &promCounterVec{c}
	})
}

func (s *prometheusService) GaugeMeter(name string) GaugeMeter {
	return getOrCreate(&s.meters, name, func() GaugeMeter {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		register(g, name)
		return &promGauge{g}
	})
}

func (s *prometheusService) GaugeVecMeter(name string, labels []string) GaugeVecMeter {
	return getOrCreate(&s.meters, name, func() GaugeVecMeter {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		register(g, name)
		return &promGaugeVec{g}
	})
}

func (s *prometheusService) HistogramMeter(name string, buckets []int64) HistogramMeter {
	return getOrCreate(&s.meters, name, func() HistogramMeter {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		})
		register(h, name)
		return &promHistogram{h}
	})
}

func (s *prometheusService) HistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	return getOrCreate(&s.meters, name, func() HistogramVecMeter {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		register(h, name)
		return &promHistogramVec{h}
	})
}

func (s *prometheusService) Handler() http.Handler {
	return promhttp.Handler()
}

type promCounter struct {
	counter prometheus.Counter
}

func (c *promCounter) Add(i int64) { c.counter.Add(float64(i)) }

type promCounterVec struct {
	counter *prometheus.CounterVec
}

func (c *promCounterVec) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (g *promGauge) Add(i int64) { g.gauge.Add(float64(i)) }
func (g *promGauge) Set(i int64) { g.gauge.Set(float64(i)) }

type promGaugeVec struct {
	gauge *prometheus.GaugeVec
}

func (g *promGaugeVec) AddWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Add(float64(i))
}

func (g *promGaugeVec) SetWithLabel(i int64, labels map[string]string) {
	g.gauge.With(labels).Set(float64(i))
}

type promHistogram struct {
	histogram prometheus.Histogram
}

func (h *promHistogram) Observe(i int64) { h.histogram.Observe(float64(i)) }

type promHistogramVec struct {
	histogram *prometheus.HistogramVec
}

func (h *promHistogramVec) ObserveWithLabels(i int64, labels map[string]string) {
	h.histogram.With(labels).Observe(float64(i))
}
