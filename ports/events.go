package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// EventPublisher notifies other services about authentication activity
type EventPublisher interface {
	PublishLogin(ctx context.Context, identity *core.Identity) error
}
