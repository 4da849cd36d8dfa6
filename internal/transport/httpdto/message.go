package httpdto

type SendMessageRequest struct {
	ConversationID string  `json:"conversation_id" binding:"required"`
	Type           string  `json:"type"`
	Content        *string `json:"content"`
	MediaURL       *string `json:"media_url"`
	MediaType      *string `json:"media_type"`
	TemplateRef    string  `json:"template_ref"`
}
