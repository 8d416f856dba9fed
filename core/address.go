package core

import (
	"strings"
	"time"
)

const (
	AccountNumberMinLength = 24
	AccountNumberMaxLength = 128
)

// TokenInfo describes the asset a payment address receives
type TokenInfo struct {
	Title            string
	Symbol           string
	LogoURL          string
	RequiresMetadata bool
	TokenInfoURL     string
}

// Address is a payment address owned by an identity
type Address struct {
	ID            string
	IdentityID    string
	AccountNumber string
	Token         TokenInfo
	Metadata      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SupportedTokens is the catalog of assets addresses can be registered for
var SupportedTokens = []TokenInfo{
	{
		Title:        "Bitcoin",
		Symbol:       "BTC",
		LogoURL:      "btc_logo.com",
		TokenInfoURL: "https://www.blockchain.com/btc/address/",
	},
	{
		Title:        "Ethereum",
		Symbol:       "ETH",
		LogoURL:      "eth_logo.com",
		TokenInfoURL: "https://etherscan.io/address/",
	},
	{
		// Exchange deposits on Stellar need a memo
		Title:            "Stellar",
		Symbol:           "XLM",
		LogoURL:          "xlm_logo.com",
		RequiresMetadata: true,
		TokenInfoURL:     "https://stellar.expert/explorer/public/account/",
	},
}

// LookupToken finds a catalog entry by symbol, ignoring case
func LookupToken(symbol string) (TokenInfo, bool) {
	for _, t := range SupportedTokens {
		if strings.EqualFold(t.Symbol, strings.TrimSpace(symbol)) {
			return t, true
		}
	}
	return TokenInfo{}, false
}
