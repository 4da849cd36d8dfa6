package httpdto

type StartConversationRequest struct {
	ContactID string `json:"contact_id" binding:"required"`
	Channel   string `json:"channel"`
}

type AssignConversationRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

type SetOptInRequest struct {
	OptedIn bool `json:"opted_in"`
}
