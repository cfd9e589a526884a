package controllers

import (
	"Nhauzo/services/game"
	"Nhauzo/services/room"
	"Nhauzo/services/store"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusOf maps a hub or engine error to an HTTP status
func StatusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrRoomNotFound), errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrAlreadySubmitted),
		errors.Is(err, game.ErrSpinInProgress),
		errors.Is(err, game.ErrGateClosed):
		return http.StatusConflict
	case errors.Is(err, room.ErrNoRoomCode), errors.Is(err, room.ErrHubClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the JSON error body used by every endpoint
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(err), gin.H{
		"error":   err.Error(),
		"message": game.UserMessage(err),
	})
}
