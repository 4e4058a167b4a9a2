package match

import (
	"math"

	"team-deathmatch/internal/engine"
)

// Ticks per cosmetic "second" used for the millisecond display and the
// alert sound cadence.
const ticksPerSecond = 30

// timeEndWindow is the first tick%30 at which a zero clock ends the match
const timeEndWindow = 28

type timeWarning struct {
	below int
	vo    engine.VoiceOver
}

var timeWarnings = [...]timeWarning{
	{120, engine.VOTime120Left},
	{60, engine.VOTime60Left},
	{30, engine.VOTime30Left},
}

// OngoingGlobal runs once per engine frame
func (c *Controller) OngoingGlobal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if c.ended || c.phase == PhaseIdle {
		return
	}

	remaining := int(math.Floor(c.eng.MatchTimeRemaining()))
	if remaining < 0 {
		remaining = 0
	}
	minutes := remaining / 60
	seconds := remaining % 60
	millis := 1000 - int(c.tick%ticksPerSecond)*30 + c.rng.Intn(10)

	if !c.started {
		c.updateCountdownLocked(remaining, millis)
	}

	c.checkTimeLocked(remaining)
	if c.ended {
		return
	}

	c.updateTimerTextLocked(remaining, minutes, seconds, millis)
}

// checkTimeLocked fires at most one time warning per tick, in descending
// order, and ends the match on an expired clock once none is due.
func (c *Controller) checkTimeLocked(remaining int) {
	for i, w := range timeWarnings {
		if remaining < w.below && !c.timeWarned[i] {
			c.timeWarned[i] = true
			c.playVOLocked(w.vo, engine.Everyone())
			return
		}
	}

	if remaining == 0 && c.tick%ticksPerSecond >= timeEndWindow {
		c.endMatchLocked(EndReasonTime)
	}
}
