package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
	"go.uber.org/zap"
)

// AddressHandlers contains HTTP handlers for the address book
type AddressHandlers struct {
	addressService *service.AddressService
	log            *zap.Logger
}

// NewAddressHandlers creates new address handlers
func NewAddressHandlers(addressService *service.AddressService, log *zap.Logger) *AddressHandlers {
	return &AddressHandlers{
		addressService: addressService,
		log:            log,
	}
}

type tokenRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

type addressRequest struct {
	AccountNumber string        `json:"accountNumber" binding:"required"`
	Token         *tokenRequest `json:"token" binding:"required"`
	Metadata      string        `json:"metadata"`
}

func (r addressRequest) input() service.AddressInput {
	return service.AddressInput{
		AccountNumber: r.AccountNumber,
		TokenSymbol:   r.Token.Symbol,
		Metadata:      r.Metadata,
	}
}

// TokenResponse describes the asset of an address
type TokenResponse struct {
	Title            string `json:"title"`
	Symbol           string `json:"symbol"`
	LogoURL          string `json:"logoUrl"`
	RequiresMetadata bool   `json:"requiresMetadata"`
	TokenInfoURL     string `json:"tokenInfoUrl"`
}

// AddressResponse describes a payment address
type AddressResponse struct {
	ID            string        `json:"id"`
	AccountNumber string        `json:"accountNumber"`
	Token         TokenResponse `json:"token"`
	Metadata      string        `json:"metadata"`
	User          string        `json:"user"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func toAddressResponse(a *core.Address) AddressResponse {
	return AddressResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Token: TokenResponse{
			Title:            a.Token.Title,
			Symbol:           a.Token.Symbol,
			LogoURL:          a.Token.LogoURL,
			RequiresMetadata: a.Token.RequiresMetadata,
			TokenInfoURL:     a.Token.TokenInfoURL,
		},
		Metadata:  a.Metadata,
		User:      a.IdentityID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *AddressHandlers) identity(c *gin.Context) (*core.Identity, bool) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		respondError(c, h.log, core.ErrMissingToken)
	}
	return identity, ok
}

// List returns the caller's addresses
func (h *AddressHandlers) List(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	addresses, err := h.addressService.List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := make([]AddressResponse, 0, len(addresses))
	for _, a := range addresses {
		resp = append(resp, toAddressResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

// Create registers a new address for the caller
func (h *AddressHandlers) Create(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.Create(c.Request.Context(), identity, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toAddressResponse(address))
}

// Update replaces one of the caller's addresses
func (h *AddressHandlers) Update(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.addressService.Update(c.Request.Context(), identity, c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toAddressResponse(address))
}

// Delete removes one of the caller's addresses
func (h *AddressHandlers) Delete(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	address, err := h.addressService.Delete(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toAddressResponse(address))
}
