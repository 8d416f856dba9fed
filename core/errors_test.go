package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("verify refresh token: %w", core.ErrTokenExpired)

	assert.Equal(t, core.KindUnauthorized, core.KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, core.ErrTokenExpired))
	assert.False(t, errors.Is(wrapped, core.ErrTokenInvalid))
	assert.Equal(t, core.KindNotFound, core.KindOf(core.ErrAccountNotFound))
	assert.Equal(t, core.KindInternal, core.KindOf(errors.New("connection refused")))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Invalid token type used.", core.PublicMessage(fmt.Errorf("authorize: %w", core.ErrWrongKind)))
	assert.Equal(t, core.PublicMessage(core.ErrTokenExpired), core.PublicMessage(core.ErrTokenInvalid))
	assert.Equal(t, "Internal server error.", core.PublicMessage(errors.New("dial tcp 10.0.0.1:6379: refused")))
	assert.Equal(t, "Internal server error.", core.PublicMessage(core.ErrSignatureFormat))
}
