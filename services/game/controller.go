package game

import redis_models "Nhauzo/models/redis"

// ControllerID returns who drives the next action: nextControllerId while
// that player is still present, the host otherwise.
func ControllerID(room *redis_models.GameRoom) string {
	if room.HasPlayer(room.NextControllerID) {
		return room.NextControllerID
	}
	return room.HostID
}

// CanInitiate reports whether id may start a round or trigger a spin
func CanInitiate(room *redis_models.GameRoom, id string) bool {
	if !room.HasPlayer(id) {
		return false
	}
	return id == ControllerID(room) || id == room.HostID
}
