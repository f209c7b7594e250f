package race

import "time"

type manualTimer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler runs callbacks only when Advance moves its clock past them.
type manualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.seq++
	t := &manualTimer{at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *manualTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.f()
	}
	s.now = target
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
