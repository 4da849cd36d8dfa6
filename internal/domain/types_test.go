package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupersedes_ForwardProgress(t *testing.T) {
	assert.True(t, DeliveryStatusSent.Supersedes(DeliveryStatusPending))
	assert.True(t, DeliveryStatusDelivered.Supersedes(DeliveryStatusSent))
	assert.True(t, DeliveryStatusRead.Supersedes(DeliveryStatusDelivered))
	assert.True(t, DeliveryStatusRead.Supersedes(DeliveryStatusQueued))
}

func TestSupersedes_DropsStaleReceipts(t *testing.T) {
	// A late "sent" receipt after "read" must not rewind progress.
	assert.False(t, DeliveryStatusSent.Supersedes(DeliveryStatusRead))
	assert.False(t, DeliveryStatusQueued.Supersedes(DeliveryStatusDelivered))
	assert.False(t, DeliveryStatusSent.Supersedes(DeliveryStatusSent))
}

func TestSupersedes_Failed(t *testing.T) {
	assert.True(t, DeliveryStatusFailed.Supersedes(DeliveryStatusRead))
	assert.True(t, DeliveryStatusFailed.Supersedes(DeliveryStatusPending))
	// Nothing ranked replaces a recorded failure.
	assert.False(t, DeliveryStatusSent.Supersedes(DeliveryStatusFailed))
}

func TestSupersedes_Unknown(t *testing.T) {
	assert.False(t, DeliveryStatusUnknown.Supersedes(DeliveryStatusPending))
	assert.True(t, DeliveryStatusSent.Supersedes(DeliveryStatusUnknown))
}

func TestPreviewTruncation(t *testing.T) {
	short := "hello there"
	assert.Equal(t, short, Preview(short))

	long := ""
	for i := 0; i < 50; i++ {
		long += "abcde"
	}
	got := Preview(long)
	assert.Len(t, []rune(got), 121)
	assert.Equal(t, "…", string([]rune(got)[120]))
}

func TestChannelExternallyDispatched(t *testing.T) {
	assert.True(t, ChannelWhatsApp.ExternallyDispatched())
	assert.True(t, ChannelSMS.ExternallyDispatched())
	assert.False(t, ChannelWebChat.ExternallyDispatched())
	assert.False(t, ChannelEmail.ExternallyDispatched())
}
