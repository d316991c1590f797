package whatsapp

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig configures the Twilio WhatsApp channel.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string // sender in digits, e.g. "14155238886"
}

// TwilioSender delivers messages through the Twilio API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a TwilioSender.
func NewTwilioSender(config *TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	return &TwilioSender{client: client, from: config.FromNumber}
}

// Send renders the template and delivers it.
func (s *TwilioSender) Send(ctx context.Context, to string, template Template, params map[string]string) error {
	body := RenderBody(template, params)
	if body == "" {
		return fmt.Errorf("template desconhecido: %s", template)
	}

	msgParams := &openapi.CreateMessageParams{}
	msgParams.SetFrom("whatsapp:+" + s.from)
	msgParams.SetTo("whatsapp:+" + to)
	msgParams.SetBody(body)

	if _, err := s.client.Api.CreateMessage(msgParams); err != nil {
		return fmt.Errorf("enviar mensagem: %w", err)
	}
	return nil
}
