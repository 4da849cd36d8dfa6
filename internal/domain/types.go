package domain

type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "OPEN"
	ConversationStatusArchived ConversationStatus = "ARCHIVED"
)

type Channel string

const (
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelWebChat  Channel = "WEBCHAT"
	ChannelSMS      Channel = "SMS"
	ChannelEmail    Channel = "EMAIL"
)

// ExternallyDispatched reports whether messages on this channel are handed
// to the upstream provider. Other channels never receive an external
// message id and keep their initial delivery status.
func (c Channel) ExternallyDispatched() bool {
	return c == ChannelWhatsApp || c == ChannelSMS
}

type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeImage    MessageType = "IMAGE"
	MessageTypeVideo    MessageType = "VIDEO"
	MessageTypeDocument MessageType = "DOCUMENT"
	MessageTypeTemplate MessageType = "TEMPLATE"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusQueued    DeliveryStatus = "QUEUED"
	DeliveryStatusSending   DeliveryStatus = "SENDING"
	DeliveryStatusSent      DeliveryStatus = "SENT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusRead      DeliveryStatus = "READ"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusUnknown   DeliveryStatus = "UNKNOWN"
)

// deliveryRank orders the forward-progress statuses. Receipts may arrive
// out of order; a receipt whose rank is not ahead of the current one is
// dropped instead of overwriting forward progress.
var deliveryRank = map[DeliveryStatus]int{
	DeliveryStatusPending:   0,
	DeliveryStatusQueued:    1,
	DeliveryStatusSending:   2,
	DeliveryStatusSent:      3,
	DeliveryStatusDelivered: 4,
	DeliveryStatusRead:      5,
}

// Supersedes reports whether next may overwrite current.
// FAILED is terminal-but-always-applicable: a failure report wins no matter
// what the provider claimed earlier. UNKNOWN never overwrites anything known.
func (next DeliveryStatus) Supersedes(current DeliveryStatus) bool {
	if next == DeliveryStatusFailed {
		return true
	}
	if next == DeliveryStatusUnknown {
		return false
	}
	nextRank, ok := deliveryRank[next]
	if !ok {
		return false
	}
	currentRank, ok := deliveryRank[current]
	if !ok {
		// current is FAILED or UNKNOWN; ranked statuses may replace UNKNOWN
		// but not a recorded failure.
		return current == DeliveryStatusUnknown
	}
	return nextRank > currentRank
}
