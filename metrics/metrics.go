// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes a process-wide metrics service. It defaults to a
// no-op implementation; calling InitializePrometheusMetrics switches the
// singleton to the prometheus-backed one. Meters are declared package-wide
// through the LazyLoad helpers so declaration order does not matter.
package metrics

import (
	"net/http"
	"sync"
)

// service is the singleton backing all meters.
var service Service = &noopService{}

// Service is implemented by metrics backends.
type Service interface {
	CounterMeter(name string) CountMeter
	CounterVecMeter(name string, labels []string) CountVecMeter
	GaugeMeter(name string) GaugeMeter
	GaugeVecMeter(name string, labels []string) GaugeVecMeter
	HistogramMeter(name string, buckets []int64) HistogramMeter
	HistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter
	Handler() http.Handler
}

// HTTPHandler returns the handler serving the metrics endpoint.
func HTTPHandler() http.Handler {
	return service.Handler()
}

// Standard buckets, in milliseconds.
var (
	BucketCommit = []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}
	BucketTxs    = []int64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
)

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// CountVecMeter is a counter with labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter is a value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// GaugeVecMeter is a gauge with labels.
type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

// HistogramMeter aggregates observations into buckets.
type HistogramMeter interface {
	Observe(int64)
}

// HistogramVecMeter is a histogram with labels.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func Counter(name string) CountMeter { return service.CounterMeter(name) }

func CounterVec(name string, labels []string) CountVecMeter {
	return service.CounterVecMeter(name, labels)
}

func Gauge(name string) GaugeMeter { return service.GaugeMeter(name) }

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return service.GaugeVecMeter(name, labels)
}

func Histogram(name string, buckets []int64) HistogramMeter {
	return service.HistogramMeter(name, buckets)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return service.HistogramVecMeter(name, labels, buckets)
}

// LazyLoad defers meter instantiation to first use, so package-level meter
// vars do not pin the singleton before InitializePrometheusMetrics runs.
func LazyLoad[T any](f func() T) func() T {
	var result T
	var once sync.Once
	return func() T {
		once.Do(func() {
			result = f()
		})
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
