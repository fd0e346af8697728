package push

import "context"

// Provider delivers a push notification to a single device token.
type Provider interface {
	Send(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendBulk(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
}

type NotificationRequest struct {
	Token    string            `json:"token"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Critical bool              `json:"critical,omitempty"`
	TTL      int               `json:"ttl,omitempty"` // seconds
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

func failed(token string, err error) *NotificationResponse {
	return &NotificationResponse{
		Success: false,
		Error:   err.Error(),
		Token:   token,
	}
}
