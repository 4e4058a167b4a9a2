package match

import (
	"team-deathmatch/internal/engine"
)

// Widget names
const (
	WidgetCountdown     = "UIWidgetTimerBeginning"
	WidgetCountdownText = "UIWidgetTimerBeginningText"
	WidgetScore         = "UIWidgetContainer"
	WidgetTimer         = "UIWidgetTimer"
	WidgetSeparator     = "UIWidgetSeparator"
	WidgetTeam1Score    = "UiWidgetTeam1Score"
	WidgetTeam1Name     = "UiWidgetTeam1Name"
	WidgetTeam2Score    = "UiWidgetTeam2Score"
	WidgetTeam2Name     = "UiWidgetTeam2Name"
	WidgetFirstTo       = "UiWidgetFirstTo"
)

var (
	colorWhite = engine.Color{R: 1, G: 1, B: 1}
	colorTeam1 = engine.Color{R: 0.439, G: 0.922, B: 1}
	colorTeam2 = engine.Color{R: 1, G: 0.514, B: 0.38}
	colorAmber = engine.Color{R: 0.9, G: 0.9, B: 0}
	colorRed   = engine.Color{R: 0.9, G: 0, B: 0}
)

// countdownPrecisionBelow switches the countdown to seconds+millis
const countdownPrecisionBelow = 5

func (c *Controller) buildScoreUILocked() {
	ui := c.eng
	ui.AddWidget(engine.Widget{
		Name: WidgetScore, Kind: engine.WidgetContainer,
		Position: engine.V(0, 52, 0), Size: engine.V(200, 60, 0),
		Anchor: engine.AnchorTopCenter, Color: engine.Color{R: 0.2, G: 0.2, B: 0.2},
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetTimer, Kind: engine.WidgetText, Parent: WidgetScore,
		Position: engine.V(0, 8, 0), Size: engine.V(200, 10, 0),
		Anchor: engine.AnchorTopCenter, Label: engine.Msg("UISCORE_SEPARATOR"),
		TextSize: 14, Color: colorWhite,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetTeam1Score, Kind: engine.WidgetText, Parent: WidgetScore,
		Size: engine.V(100, 40, 0), Anchor: engine.AnchorCenterLeft,
		Label: engine.Msg("UISCORE_POINTS", 0), TextSize: 20, Color: colorTeam1,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetTeam1Name, Kind: engine.WidgetText, Parent: WidgetScore,
		Position: engine.V(0, 5, 0), Size: engine.V(100, 10, 0),
		Anchor: engine.AnchorBottomLeft, Label: engine.Msg("UISCORE_TEAM1_NAME"),
		TextSize: 12, Color: colorTeam1,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetSeparator, Kind: engine.WidgetText, Parent: WidgetScore,
		Position: engine.V(0, 10, 0), Size: engine.V(200, 50, 0),
		Anchor: engine.AnchorTopCenter, Label: engine.Msg("UISCORE_SEPARATOR"),
		TextSize: 18, Color: colorWhite,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetTeam2Score, Kind: engine.WidgetText, Parent: WidgetScore,
		Size: engine.V(100, 40, 0), Anchor: engine.AnchorCenterRight,
		Label: engine.Msg("UISCORE_POINTS", 0), TextSize: 20, Color: colorTeam2,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetTeam2Name, Kind: engine.WidgetText, Parent: WidgetScore,
		Position: engine.V(0, 5, 0), Size: engine.V(100, 10, 0),
		Anchor: engine.AnchorBottomRight, Label: engine.Msg("UISCORE_TEAM2_NAME"),
		TextSize: 12, Color: colorTeam2,
	})
	ui.AddWidget(engine.Widget{
		Name: WidgetFirstTo, Kind: engine.WidgetText, Parent: WidgetScore,
		Position: engine.V(0, 1, 0), Size: engine.V(100, 10, 0),
		Anchor: engine.AnchorBottomCenter, Label: engine.Msg("UISCORE_FIRSTTO", c.cfg.TargetScore),
		TextSize: 12, Color: colorWhite,
	})
}

func (c *Controller) buildCountdownUILocked() {
	c.eng.AddWidget(engine.Widget{
		Name: WidgetCountdown, Kind: engine.WidgetContainer,
		Position: engine.V(0, -250, 0), Size: engine.V(400, 200, 0),
		Anchor: engine.AnchorCenter, Color: colorWhite,
	})
	c.eng.AddWidget(engine.Widget{
		Name: WidgetCountdownText, Kind: engine.WidgetText, Parent: WidgetCountdown,
		Size: engine.V(300, 300, 0), Anchor: engine.AnchorCenter,
		Label:    engine.Msg("UISCORE_TIMER_BEGINNING", int(c.cfg.FreezeTime.Seconds()), 0),
		TextSize: 120, Color: colorWhite,
	})
}

// removeWidgetLocked deletes name if it still exists
func (c *Controller) removeWidgetLocked(name string) {
	if !c.eng.WidgetExists(name) {
		c.log.Debugw("Widget already gone", "widget", name)
		return
	}
	c.eng.DeleteWidget(name)
}

func (c *Controller) updateCountdownLocked(remaining, millis int) {
	if !c.eng.WidgetExists(WidgetCountdownText) {
		return
	}
	seconds := remaining - int((c.cfg.TimeLimit - c.cfg.FreezeTime).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	label := engine.Msg("UISCORE_TIMER_BEGINNING", seconds)
	if seconds <= countdownPrecisionBelow {
		label = engine.Msg("UISCORE_TIMER_BEGINNING_MS", seconds, millis)
	}
	c.eng.SetWidgetText(WidgetCountdownText, label)
}

func (c *Controller) updateScoreTextLocked() {
	for _, w := range []struct {
		name string
		team engine.TeamID
	}{
		{WidgetTeam1Score, c.cfg.Team1},
		{WidgetTeam2Score, c.cfg.Team2},
	} {
		if c.eng.WidgetExists(w.name) {
			c.eng.SetWidgetText(w.name, engine.Msg("UISCORE_POINTS", c.eng.GameModeScore(w.team)))
		}
	}
}

func (c *Controller) updateTimerTextLocked(remaining, minutes, seconds, millis int) {
	if !c.eng.WidgetExists(WidgetTimer) {
		return
	}

	if remaining < 60 {
		c.eng.SetWidgetTextColor(WidgetTimer, colorRed)
		c.eng.SetWidgetText(WidgetTimer, engine.Msg("UISCORE_TIMER", seconds, millis))
		if seconds <= 20 && c.tick%30 == 0 {
			c.eng.PlaySFX(engine.SFXCountdownAlert)
		}
		return
	}

	if remaining < 120 {
		c.eng.SetWidgetTextColor(WidgetTimer, colorAmber)
	}
	key := "UISCORE_TIMER"
	if seconds < 10 {
		key = "UISCORE_TIMER_PADDED"
	}
	c.eng.SetWidgetText(WidgetTimer, engine.Msg(key, minutes, seconds))
}
