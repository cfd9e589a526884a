package socketio_utils

import (
	"Nhauzo/middleware"
	"errors"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zishang520/socket.io/v2/socket"
)

// TokenFromAuth reads the player token of a handshake. Clients send
// {token: "..."} or, like HTTP, {authorization: "Bearer ..."}.
func TokenFromAuth(auth any) (string, error) {
	authData, ok := auth.(map[string]any)
	if !ok {
		return "", errors.New("missing auth data")
	}
	if token, ok := authData["token"].(string); ok && token != "" {
		return token, nil
	}
	if header, ok := authData["authorization"].(string); ok {
		return middleware.BearerToken(header)
	}
	return "", middleware.ErrMissingToken
}

// VerifyPlayerConnection authenticates a socket.io client with the player
// token issued when it created or joined a room
func VerifyPlayerConnection(client *socket.Socket, tokens *middleware.TokenManager) (*middleware.PlayerClaims, bool) {
	token, err := TokenFromAuth(client.Handshake().Auth)
	if err != nil {
		log.Infof("[AUTH-ERROR] Socket %s: %v", client.Id(), err)
		client.Emit("error", gin.H{"error": "Authentication failed: " + err.Error()})
		return nil, false
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		log.Infof("[AUTH-ERROR] Socket %s: %v", client.Id(), err)
		client.Emit("error", gin.H{"error": "Authentication failed: " + err.Error()})
		return nil, false
	}
	return claims, true
}
