package match

import (
	"fmt"

	"team-deathmatch/internal/engine"
)

// Scoreboard columns: K/D x1000, kills, deaths, assists, headshot percent.
// The engine scoreboard has no decimals, hence the scaled ratio.
var scoreboardWidths = []int{250, 100, 100, 100, 250}

const scoreboardSortColumn = 1 // kills

// ScoreboardValues projects stats onto the five scoreboard columns
func ScoreboardValues(st PlayerStats) []int {
	deaths := st.Deaths
	if deaths < 1 {
		deaths = 1
	}
	hsPercent := 0
	if st.Kills > 0 {
		hsPercent = st.Headshots * 100 / st.Kills
	}
	return []int{
		st.Kills * 1000 / deaths,
		st.Kills,
		st.Deaths,
		st.Assists,
		hsPercent,
	}
}

// ScoreboardRow is one player's line as served by the API
type ScoreboardRow struct {
	Player engine.PlayerID `json:"player"`
	Team   engine.TeamID   `json:"team"`
	Stats  PlayerStats     `json:"stats"`
	Values []int           `json:"values"`
}

func (c *Controller) initScoreboardLocked() {
	columns := make([]engine.Message, len(scoreboardWidths))
	for i := range columns {
		columns[i] = engine.Msg(fmt.Sprintf("SCOREBOARD_COLUMN%d_HEADER", i+1))
	}
	c.eng.SetScoreboardColumns(columns, scoreboardWidths)
	c.eng.SetScoreboardHeader(engine.Msg("SCOREBOARD_TEAM1_NAME"), engine.Msg("SCOREBOARD_TEAM2_NAME"))
	c.eng.SetScoreboardSorting(scoreboardSortColumn, false)

	for _, p := range c.eng.AllPlayers() {
		if st, ok := c.stats.Get(p); ok {
			c.eng.SetScoreboardRow(p, ScoreboardValues(st))
		}
	}
}

func (c *Controller) updateScoreboardLocked(p engine.PlayerID, st PlayerStats) {
	c.eng.SetScoreboardRow(p, ScoreboardValues(st))
}
