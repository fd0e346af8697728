package sms

import "context"

// Provider sends a single outbound text. Delivery is best effort: a nil error
// means the provider accepted the message, not that it reached the handset.
type Provider interface {
	Send(ctx context.Context, request *Request) (*Response, error)
	SendBulk(ctx context.Context, requests []*Request) ([]*Response, error)
	GetDeliveryStatus(ctx context.Context, messageID string) (*DeliveryStatus, error)
}

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

type Request struct {
	To        string   `json:"to"`
	From      string   `json:"from"`
	Message   string   `json:"message"`
	Channel   Channel  `json:"channel"`
	MediaURLs []string `json:"media_urls,omitempty"`
	Type      string   `json:"type"` // transactional, promotional
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type DeliveryStatus struct {
	MessageID    string `json:"message_id"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func sendEach(ctx context.Context, p Provider, requests []*Request) []*Response {
	responses := make([]*Response, len(requests))
	for i, req := range requests {
		resp, err := p.Send(ctx, req)
		if err != nil {
			resp = &Response{
				Status: "failed",
				Error:  err.Error(),
			}
		}
		responses[i] = resp
	}
	return responses
}
