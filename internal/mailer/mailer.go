package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"agendavip/config"
)

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

const (
	TemplateConfirmation       = "confirmacao"
	TemplateCancellation       = "cancelamento"
	TemplateTimeChange         = "mudanca_horario"
	TemplateProfessionalChange = "mudanca_profissional"
	TemplateReminderDay        = "lembrete_1_dia"
	TemplateReminderHour       = "lembrete_1_hora"
	TemplatePasswordReset      = "recuperar_senha"
	TemplateRejection          = "recusa"
)

var subjects = map[string]string{
	TemplateConfirmation:       "Agendamento Confirmado - AgendaVip",
	TemplateCancellation:       "Agendamento Cancelado - AgendaVip",
	TemplateTimeChange:         "Alteração de Agendamento - AgendaVip",
	TemplateProfessionalChange: "Atualização de Agendamento - AgendaVip",
	TemplateReminderDay:        "Lembrete: seu agendamento é amanhã - AgendaVip",
	TemplateReminderHour:       "Lembrete: seu agendamento é em 1 hora - AgendaVip",
	TemplatePasswordReset:      "Recuperação de Senha - AgendaVip",
	TemplateRejection:          "Agendamento Recusado - AgendaVip",
}

type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Data - поля, доступные в шаблонах писем.
type Data struct {
	RecipientName    string
	ClientName       string
	ProfessionalName string
	ServiceName      string
	Date             string
	Time             string
	Reason           string
	Link             string
	Year             int
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt"))
)

// Build рендерит письмо по имени шаблона.
func Build(name string, to string, data Data) (Message, error) {
	subject, ok := subjects[name]
	if !ok {
		return Message{}, fmt.Errorf("неизвестный шаблон письма: %s", name)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("ошибка рендера html-шаблона %s: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("ошибка рендера текстового шаблона %s: %w", name, err)
	}

	return Message{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: strings.TrimSpace(text.String()),
	}, nil
}

type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewResendSender(cfg config.EmailConfig, logger *zap.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From),
		logger: logger,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if msg.HTMLBody == "" && msg.TextBody == "" {
		return fmt.Errorf("письмо без тела: %s", msg.Subject)
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки письма через resend: %w", err)
	}

	s.logger.Info("письмо отправлено", zap.String("id", sent.Id), zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogSender только пишет письмо в лог (EMAIL_TEST_MODE).
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("письмо (тестовый режим, не отправлено)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.TextBody),
	)
	return nil
}

func NewSender(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if cfg.TestMode || cfg.ResendAPIKey == "" {
		return NewLogSender(logger)
	}
	return NewResendSender(cfg, logger)
}
