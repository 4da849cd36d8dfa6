package events

import (
	"fmt"

	"github.com/google/uuid"
)

// ChannelPrefix scopes realtime channels per tenant. All conversations for
// a business share one channel; subscribers filter client-side.
const ChannelPrefix = "business-"

func ChannelForBusiness(businessID uuid.UUID) string {
	return fmt.Sprintf("%s%s", ChannelPrefix, businessID)
}

// ChannelResolver determines which channels an event is published to.
type ChannelResolver interface {
	ResolveChannels(event Event) []string
}

type TenantChannelResolver struct{}

func NewTenantChannelResolver() *TenantChannelResolver {
	return &TenantChannelResolver{}
}

func (r *TenantChannelResolver) ResolveChannels(event Event) []string {
	tenant := event.Tenant()
	if tenant == uuid.Nil {
		return nil
	}
	return []string{ChannelForBusiness(tenant)}
}
