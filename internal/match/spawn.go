package match

import (
	"team-deathmatch/internal/engine"
)

// noEnemyDistance is used for every spawn point when no enemy is alive
const noEnemyDistance = 999999999

// markerParking is where spawn markers are moved once read; they are
// placement markers only and must not stay in the play space.
var markerParking = engine.V(-100, -100, -100)

// maxSpawnMarkers bounds discovery against an engine that never reports a
// missing object.
const maxSpawnMarkers = 4096

// DiscoverSpawnPoints reads the contiguous run of markers starting at base
// and parks each one outside the map. Enumeration stops at the first id the
// world does not know.
func DiscoverSpawnPoints(world engine.World, base engine.ObjectID) []engine.Vec3 {
	var points []engine.Vec3
	for id := base; id < base+maxSpawnMarkers; id++ {
		pos, ok := world.SpatialObject(id)
		if !ok {
			break
		}
		points = append(points, pos)
		world.MoveObject(id, markerParking)
	}
	return points
}

// SelectSpawnPoint returns the point maximising the minimum distance to any
// living enemy of p. Ties keep the first point. ok is false without points.
func SelectSpawnPoint(players engine.Players, p engine.PlayerID, points []engine.Vec3) (engine.Vec3, bool) {
	if len(points) == 0 {
		return engine.Vec3{}, false
	}

	team := players.PlayerTeam(p)
	var enemies []engine.Vec3
	for _, other := range players.AllPlayers() {
		if other == p || players.IsDead(other) || players.PlayerTeam(other) == team {
			continue
		}
		enemies = append(enemies, players.Position(other))
	}

	best := points[0]
	bestDistance := -1.0
	for _, point := range points {
		closest := float64(noEnemyDistance)
		for _, enemy := range enemies {
			if d := point.Distance(enemy); d < closest {
				closest = d
			}
		}
		if closest > bestDistance {
			best = point
			bestDistance = closest
		}
	}
	return best, true
}
