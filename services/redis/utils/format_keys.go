package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs and pub/sub channels, so the formats live in one place.
 */

import "fmt"

func FormatRoomKey(roomId string) string {
	return fmt.Sprintf("room:%s", roomId)
}

func FormatRoomChannel(roomId string) string {
	return fmt.Sprintf("room:%s:updates", roomId)
}
