package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	log         *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         log,
	}
}

type nonceRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required"`
	Provider      string `json:"provider" binding:"required"`
}

type loginRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required"`
	Provider      string `json:"provider" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// IdentityResponse describes an authenticated identity
type IdentityResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
	Provider      string `json:"provider"`
}

// Nonce returns the challenge the wallet has to sign, creating the identity on first use
func (h *AuthHandlers) Nonce(c *gin.Context) {
	var req nonceRequest
	if !bindJSON(c, &req) {
		return
	}

	nonce, err := h.authService.IssueNonce(c.Request.Context(), req.AccountNumber, core.Provider(req.Provider))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Login exchanges a signed nonce for an access and a refresh token
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.AccountNumber, core.Provider(req.Provider), req.Signature)
	if err != nil && pair.AccessToken == "" {
		respondError(c, h.log, err)
		return
	}
	// Only the nonce rotation failed, the service already logged it

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Refresh mints a new access token from a refresh token
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	accessToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// Me returns the identity behind the access token
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		respondError(c, h.log, core.ErrMissingToken)
		return
	}

	c.JSON(http.StatusOK, IdentityResponse{
		ID:            identity.ID,
		AccountNumber: identity.Address,
		Provider:      string(identity.Provider),
	})
}
