// Package convert implements the timestamp converter (spec §4.2): the
// mapping between game time (the device/audio clock) and map time (the
// chart's own clock), parameterized by a global device-latency offset and a
// per-map calibration offset.
package convert

import "github.com/plitki-go/plitki/internal/timing"

// Converter holds the two offsets needed to translate between game time and
// map time.
type Converter struct {
	// GlobalOffset compensates for device/audio latency; it is typically
	// shared across every map a player plays.
	GlobalOffset timing.GameTimeDelta
	// LocalOffset calibrates a specific map's timing, on top of the global
	// offset.
	LocalOffset timing.MapTimeDelta
}

// GameToMap converts a game timestamp into map time:
// map_time = MapTime(game_time + global_offset) + local_offset.
func (c Converter) GameToMap(t timing.GameTimestamp) timing.MapTimestamp {
	shifted := t.Add(c.GlobalOffset)
	return timing.MapTimestamp{T: shifted.T}.Add(c.LocalOffset)
}

// MapToGame converts a map timestamp into game time:
// game_time = GameTime(map_time - local_offset) - global_offset.
func (c Converter) MapToGame(t timing.MapTimestamp) timing.GameTimestamp {
	shifted := t.SubDelta(c.LocalOffset)
	return timing.GameTimestamp{T: shifted.T}.SubDelta(c.GlobalOffset)
}

// GameToMapDuration converts a game-time duration into a map-time duration.
// Durations do not involve either offset.
func (c Converter) GameToMapDuration(d timing.GameTimeDelta) timing.MapTimeDelta {
	return timing.MapTimeDelta{D: d.D}
}

// MapToGameDuration converts a map-time duration into a game-time duration.
func (c Converter) MapToGameDuration(d timing.MapTimeDelta) timing.GameTimeDelta {
	return timing.GameTimeDelta{D: d.D}
}
