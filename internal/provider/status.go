package provider

import "relaydesk/internal/domain"

// statusVocabulary maps the provider's delivery-state strings to the
// internal enum. Anything outside the table maps to UNKNOWN.
var statusVocabulary = map[string]domain.DeliveryStatus{
	"queued":      domain.DeliveryStatusQueued,
	"sending":     domain.DeliveryStatusSending,
	"sent":        domain.DeliveryStatusSent,
	"delivered":   domain.DeliveryStatusDelivered,
	"read":        domain.DeliveryStatusRead,
	"undelivered": domain.DeliveryStatusFailed,
	"failed":      domain.DeliveryStatusFailed,
}

func MapDeliveryStatus(providerStatus string) domain.DeliveryStatus {
	if s, ok := statusVocabulary[providerStatus]; ok {
		return s
	}
	return domain.DeliveryStatusUnknown
}
