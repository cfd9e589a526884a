package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing player token")
	ErrInvalidToken = errors.New("invalid player token")
	ErrExpiredToken = errors.New("expired player token")
)

// PlayerKey is where PlayerAuth stores the claims in the gin context
const PlayerKey = "player"

// PlayerClaims binds a player id to the room it was issued for
type PlayerClaims struct {
	PlayerID string `json:"player_id"`
	RoomID   string `json:"room_id"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewTokenManager(secretKey string, maxAge time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *TokenManager) Generate(playerID, roomID string, now time.Time) (string, error) {
	claims := PlayerClaims{
		PlayerID: playerID,
		RoomID:   roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("error signing player token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(tokenString string) (*PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlayerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*PlayerClaims)
	if !ok || !token.Valid || claims.PlayerID == "" || claims.RoomID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// PlayerAuth rejects requests without a valid player token
func PlayerAuth(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(PlayerKey, claims)
		c.Next()
	}
}

// Player returns the claims stored by PlayerAuth
func Player(c *gin.Context) *PlayerClaims {
	claims, _ := c.MustGet(PlayerKey).(*PlayerClaims)
	return claims
}
