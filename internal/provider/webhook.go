package provider

import (
	"net/url"
	"strconv"
)

// InboundPayload is one inbound message event, decoded from the provider's
// form-encoded webhook body.
type InboundPayload struct {
	From              string
	To                string
	Body              string
	ExternalMessageID string
	MediaURL          string
	MediaContentType  string
	NumMedia          int
}

// StatusPayload is one delivery-state callback. From is the tenant's
// provider number (the receipt concerns a message the tenant sent), used
// to scope the external id lookup per tenant.
type StatusPayload struct {
	From              string
	To                string
	ExternalMessageID string
	Status            string
	ErrorCode         string
	ErrorMessage      string
}

// ParseInbound decodes the raw webhook body. Only the first media item is
// retained; multi-media inbound messages are not fully supported.
func ParseInbound(rawBody []byte) (InboundPayload, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return InboundPayload{}, err
	}
	numMedia, _ := strconv.Atoi(values.Get("NumMedia"))
	return InboundPayload{
		From:              values.Get("From"),
		To:                values.Get("To"),
		Body:              values.Get("Body"),
		ExternalMessageID: values.Get("MessageSid"),
		MediaURL:          values.Get("MediaUrl0"),
		MediaContentType:  values.Get("MediaContentType0"),
		NumMedia:          numMedia,
	}, nil
}

// ParseStatus decodes a delivery-state callback body.
func ParseStatus(rawBody []byte) (StatusPayload, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return StatusPayload{}, err
	}
	return StatusPayload{
		From:              values.Get("From"),
		To:                values.Get("To"),
		ExternalMessageID: values.Get("MessageSid"),
		Status:            values.Get("MessageStatus"),
		ErrorCode:         values.Get("ErrorCode"),
		ErrorMessage:      values.Get("ErrorMessage"),
	}, nil
}
