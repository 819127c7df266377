package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/mailer"
)

type NotificationServiceImpl struct {
	sender      mailer.Sender
	frontendURL string
	loc         *time.Location
	logger      *zap.Logger
}

func NewNotificationService(sender mailer.Sender, frontendURL string, loc *time.Location, logger *zap.Logger) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		loc:         loc,
		logger:      logger,
	}
}

type recipient struct {
	name  string
	email string
}

func (s *NotificationServiceImpl) data(a domain.Appointment, to recipient) mailer.Data {
	local := a.StartsAt.In(s.loc)
	return mailer.Data{
		RecipientName:    to.name,
		ClientName:       a.ClientName,
		ProfessionalName: a.ProfessionalName,
		ServiceName:      a.ServiceName,
		Date:             local.Format("02/01/2006"),
		Time:             local.Format(domain.TimeFormat),
		Link:             s.frontendURL,
	}
}

// send отправляет письмо каждому получателю, ошибки объединяются.
func (s *NotificationServiceImpl) send(ctx context.Context, template string, recipients []recipient, build func(recipient) mailer.Data) error {
	var errs []error
	for _, to := range recipients {
		if to.email == "" {
			continue
		}

		msg, err := mailer.Build(template, to.email, build(to))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("ошибка отправки письма",
				zap.String("template", template),
				zap.String("to", to.email),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func clientRecipient(a domain.Appointment) recipient {
	return recipient{name: a.ClientName, email: a.ClientEmail}
}

func professionalRecipient(a domain.Appointment) recipient {
	return recipient{name: a.ProfessionalName, email: a.ProfessionalEmail}
}

func (s *NotificationServiceImpl) AppointmentConfirmed(ctx context.Context, a domain.Appointment) error {
	return s.send(ctx, mailer.TemplateConfirmation, []recipient{clientRecipient(a)}, func(to recipient) mailer.Data {
		return s.data(a, to)
	})
}

func (s *NotificationServiceImpl) AppointmentRejected(ctx context.Context, a domain.Appointment) error {
	return s.send(ctx, mailer.TemplateRejection, []recipient{clientRecipient(a)}, func(to recipient) mailer.Data {
		return s.data(a, to)
	})
}

func (s *NotificationServiceImpl) AppointmentCancelled(ctx context.Context, a domain.Appointment, reason string) error {
	return s.send(ctx, mailer.TemplateCancellation, []recipient{clientRecipient(a), professionalRecipient(a)}, func(to recipient) mailer.Data {
		d := s.data(a, to)
		d.Reason = reason
		return d
	})
}

// AppointmentRescheduled: при смене времени пишем клиенту и новому профессионалу,
// при смене профессионала дополнительно предупреждаем прежнего.
func (s *NotificationServiceImpl) AppointmentRescheduled(ctx context.Context, before, after domain.Appointment) error {
	var errs []error

	if !before.StartsAt.Equal(after.StartsAt) || before.ProfessionalID != after.ProfessionalID {
		errs = append(errs, s.send(ctx, mailer.TemplateTimeChange, []recipient{clientRecipient(after), professionalRecipient(after)}, func(to recipient) mailer.Data {
			return s.data(after, to)
		}))
	}

	if before.ProfessionalID != after.ProfessionalID {
		errs = append(errs, s.send(ctx, mailer.TemplateProfessionalChange, []recipient{professionalRecipient(before)}, func(to recipient) mailer.Data {
			return s.data(before, to)
		}))
	}

	return errors.Join(errs...)
}

func (s *NotificationServiceImpl) Reminder(ctx context.Context, a domain.Appointment, kind domain.ReminderKind) error {
	var template string
	switch kind {
	case domain.ReminderOneDay:
		template = mailer.TemplateReminderDay
	case domain.ReminderOneHour:
		template = mailer.TemplateReminderHour
	default:
		return fmt.Errorf("неизвестный тип напоминания: %s", kind)
	}

	return s.send(ctx, template, []recipient{clientRecipient(a), professionalRecipient(a)}, func(to recipient) mailer.Data {
		return s.data(a, to)
	})
}

func (s *NotificationServiceImpl) PasswordReset(ctx context.Context, user domain.User, token string) error {
	link := s.frontendURL + "/redefinir-senha?token=" + url.QueryEscape(token)

	return s.send(ctx, mailer.TemplatePasswordReset, []recipient{{name: user.Name, email: user.Email}}, func(to recipient) mailer.Data {
		return mailer.Data{RecipientName: to.name, Link: link}
	})
}
