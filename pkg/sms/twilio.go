package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsAppPrefix = "whatsapp:"

type TwilioProvider struct {
	client         *twilio.RestClient
	fromNumber     string
	whatsAppNumber string
}

func NewTwilioProvider(accountSID, authToken, fromNumber, whatsAppNumber string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		client:         client,
		fromNumber:     fromNumber,
		whatsAppNumber: whatsAppNumber,
	}
}

func (t *TwilioProvider) Send(ctx context.Context, request *Request) (*Response, error) {
	to, from := t.addresses(request)
	if from == "" {
		return &Response{Status: "failed", Error: "no sender configured"},
			fmt.Errorf("no %s sender configured", request.Channel)
	}

	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(request.Message)
	if len(request.MediaURLs) > 0 {
		params.SetMediaUrl(request.MediaURLs)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &Response{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to send twilio message: %w", err)
	}

	out := &Response{Status: "sent"}
	if resp.Sid != nil {
		out.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		out.Status = string(*resp.Status)
	}
	return out, nil
}

func (t *TwilioProvider) SendBulk(ctx context.Context, requests []*Request) ([]*Response, error) {
	return sendEach(ctx, t, requests), nil
}

func (t *TwilioProvider) GetDeliveryStatus(ctx context.Context, messageID string) (*DeliveryStatus, error) {
	resp, err := t.client.Api.FetchMessage(messageID, &api.FetchMessageParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message status: %w", err)
	}

	status := &DeliveryStatus{MessageID: messageID}
	if resp.Status != nil {
		status.Status = string(*resp.Status)
	}
	if resp.ErrorCode != nil {
		status.ErrorCode = fmt.Sprintf("%d", *resp.ErrorCode)
	}
	if resp.ErrorMessage != nil {
		status.ErrorMessage = *resp.ErrorMessage
	}

	return status, nil
}

func (t *TwilioProvider) addresses(request *Request) (to, from string) {
	from = request.From
	if request.Channel != ChannelWhatsApp {
		if from == "" {
			from = t.fromNumber
		}
		return request.To, from
	}

	if from == "" {
		from = t.whatsAppNumber
	}
	if from == "" {
		return withWhatsAppPrefix(request.To), ""
	}
	return withWhatsAppPrefix(request.To), withWhatsAppPrefix(from)
}

func withWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}
