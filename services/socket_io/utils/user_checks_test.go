package socketio_utils

import (
	"Nhauzo/middleware"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromAuth(t *testing.T) {
	token, err := TokenFromAuth(map[string]any{"token": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = TokenFromAuth(map[string]any{"authorization": "Bearer xyz"})
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = TokenFromAuth(nil)
	assert.Error(t, err)

	_, err = TokenFromAuth(map[string]any{"token": 42})
	assert.ErrorIs(t, err, middleware.ErrMissingToken)

	_, err = TokenFromAuth(map[string]any{"authorization": "xyz"})
	assert.ErrorIs(t, err, middleware.ErrMissingToken)
}
