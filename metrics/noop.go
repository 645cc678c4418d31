// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noopService discards every measurement.
type noopService struct{}

func (n *noopService) CounterMeter(string) CountMeter                       { return noop }
func (n *noopService) CounterVecMeter(string, []string) CountVecMeter       { return noop }
func (n *noopService) GaugeMeter(string) GaugeMeter                         { return noop }
func (n *noopService) GaugeVecMeter(string, []string) GaugeVecMeter         { return noop }
func (n *noopService) HistogramMeter(string, []int64) HistogramMeter        { return noop }
func (n *noopService) HistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return noop
}
func (n *noopService) Handler() http.Handler { return http.NotFoundHandler() }

var noop = noopMeter{}

type noopMeter struct{}

func (noopMeter) Add(int64)                                 {}
func (noopMeter) Set(int64)                                 {}
func (noopMeter) Observe(int64)                             {}
func (noopMeter) AddWithLabel(int64, map[string]string)     {}
func (noopMeter) SetWithLabel(int64, map[string]string)     {}
func (noopMeter) ObserveWithLabels(int64, map[string]string) {}
