package race

import "strconv"

// CountdownLabel renders a countdown value for display.
func CountdownLabel(v int) string {
	if v == CountdownGo {
		return "GO!"
	}
	return strconv.Itoa(v)
}

// Countdown is the value currently shown: 3, 2, 1, then CountdownGo.
func (e *Engine) Countdown() int {
	return e.countdown
}

// startCountdown resets the value and arms the first tick. Any older
// countdown is cancelled first, so at most one is ever pending.
func (e *Engine) startCountdown() {
	e.stopCountdown()
	e.countdown = CountdownStart
	e.armTick()
}

func (e *Engine) stopCountdown() {
	if e.countdownTimer != nil {
		e.countdownTimer.Stop()
		e.countdownTimer = nil
	}
	e.countdownGen++
}

func (e *Engine) armTick() {
	gen := e.countdownGen
	e.countdownTimer = e.sched.AfterFunc(e.countdownTick, func() {
		// A stopped timer may still deliver if it already fired.
		if gen != e.countdownGen || e.status != StatusCountdown {
			return
		}
		e.tick()
	})
}

// tick advances 3 -> 2 -> 1 -> GO, and moves to Playing on the tick after GO.
func (e *Engine) tick() {
	e.countdownTimer = nil

	if e.countdown == CountdownGo {
		e.countdownGen++
		e.startPlaying()
		return
	}

	e.countdown--
	e.armTick()
	e.changed()
}
