// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Waiter provides the channel to wait on. The value read indicates signal
// or broadcast: true for signal, false for broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal is a rendezvous point for goroutines waiting for or announcing an
// event. Unlike sync.Cond it is channel based, so waiting composes with
// select.
type Signal struct {
	l  sync.Mutex
	ch chan bool
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
}

// Signal wakes one goroutine waiting on s, if any.
func (s *Signal) Signal() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	select {
	case s.ch <- true:
	default:
	}
}

// Broadcast wakes all goroutines waiting on s.
func (s *Signal) Broadcast() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	close(s.ch)
	s.ch = make(chan bool, 1)
}

// NewWaiter creates a Waiter for acquiring the channel to wait on.
func (s *Signal) NewWaiter() Waiter {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	ref := s.ch

	return waiterFunc(func() <-chan bool {
		ch := ref

		s.l.Lock()
		ref = s.ch
		s.l.Unlock()

		return ch
	})
}

type waiterFunc func() <-chan bool

func (w waiterFunc) C() <-chan bool {
	return w()
}
