package room

import (
	game_constants "Nhauzo/constants/game"
	crand "crypto/rand"
	"math/big"

	"golang.org/x/exp/rand"
)

// GenerateRoomCode draws a code from the unambiguous alphabet
func GenerateRoomCode() string {
	code := make([]byte, game_constants.RoomCodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(game_constants.RoomCodeChars))))
		if err != nil {
			code[i] = game_constants.RoomCodeChars[rand.Intn(len(game_constants.RoomCodeChars))]
			continue
		}
		code[i] = game_constants.RoomCodeChars[n.Int64()]
	}
	return string(code)
}
