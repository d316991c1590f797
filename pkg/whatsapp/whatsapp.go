// Package whatsapp sends transactional messages to customers.
package whatsapp

import (
	"context"
	"fmt"
)

// Template identifies a message template.
type Template string

const (
	TemplateRewardReady         Template = "reward_ready"
	TemplateRewardExpiring      Template = "reward_expiring"
	TemplateAppointmentReminder Template = "appointment_reminder"
	TemplateWelcome             Template = "welcome"
)

// Sender delivers a templated message to a WhatsApp number in E.164 digits
// without the plus sign.
type Sender interface {
	Send(ctx context.Context, to string, template Template, params map[string]string) error
}

// RenderBody fills a template with its parameters. Bodies are pt-BR since the
// product serves Brazilian establishments.
func RenderBody(template Template, params map[string]string) string {
	switch template {
	case TemplateRewardReady:
		return fmt.Sprintf("Parabéns! Você completou seu cartão em %s e sua recompensa está disponível: %s. Válida até %s.",
			params["establishment"], params["reward"], params["expires_at"])
	case TemplateRewardExpiring:
		return fmt.Sprintf("Sua recompensa em %s vence em %s. Não perca: %s!",
			params["establishment"], params["expires_at"], params["reward"])
	case TemplateAppointmentReminder:
		return fmt.Sprintf("Lembrete: você tem horário em %s no dia %s com %s.",
			params["establishment"], params["scheduled_at"], params["professional"])
	case TemplateWelcome:
		return fmt.Sprintf("Bem-vindo ao programa de fidelidade de %s! Acompanhe seus pontos em %s.",
			params["establishment"], params["card_url"])
	default:
		return ""
	}
}
