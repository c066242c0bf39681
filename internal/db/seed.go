package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

type SeedOptions struct {
	TimeZone string
	// Если задан, создаётся оператор с ролью admin.
	AdminEmail        string
	AdminPasswordHash string
}

type calendarSpec struct {
	id          string
	slotMinutes int
	dayStart    string
	dayEnd      string
}

var defaultCalendars = []calendarSpec{
	{id: model.CalendarFreeTrial, slotMinutes: 15, dayStart: "08:00", dayEnd: "20:00"},
	{id: model.CalendarReservation, slotMinutes: 90, dayStart: "08:30", dayEnd: "20:30"},
}

// Seed создаёт календари, шаблоны писем и роль администратора. Повторный вызов безопасен.
func Seed(ctx context.Context, gdb *gorm.DB, opts SeedOptions) error {
	calendars := repository.NewGormCalendarRepository(gdb)
	for _, spec := range defaultCalendars {
		labels, err := calendar.GenerateLabels(spec.dayStart, spec.dayEnd, spec.slotMinutes)
		if err != nil {
			return fmt.Errorf("calendar %s labels: %w", spec.id, err)
		}
		if err := calendar.ValidateCatalog(labels); err != nil {
			return fmt.Errorf("calendar %s labels: %w", spec.id, err)
		}
		raw, err := json.Marshal(labels)
		if err != nil {
			return err
		}
		tz := opts.TimeZone
		if tz == "" {
			tz = "UTC"
		}
		cal := &model.Calendar{
			ID:          spec.id,
			TimeZone:    tz,
			SlotMinutes: spec.slotMinutes,
			DayStart:    spec.dayStart,
			DayEnd:      spec.dayEnd,
			Labels:      raw,
		}
		if err := calendars.Save(ctx, cal); err != nil {
			return fmt.Errorf("save calendar %s: %w", spec.id, err)
		}
	}

	templates := repository.NewGormTemplateRepository(gdb)
	if err := templates.CreateMissing(ctx, DefaultTemplates()); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}

	role, err := repository.EnsureRole(ctx, gdb, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed role: %w", err)
	}

	if opts.AdminEmail == "" || opts.AdminPasswordHash == "" {
		return nil
	}
	operators := repository.NewGormOperatorRepository(gdb)
	_, err = operators.FindByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return operators.Create(ctx, &model.Operator{
		Email:        opts.AdminEmail,
		DisplayName:  "Administrator",
		PasswordHash: opts.AdminPasswordHash,
		RoleID:       role.ID,
	})
}

// DefaultTemplates — стартовый каталог писем. У пробной записи нет отмены.
func DefaultTemplates() []model.MessageTemplate {
	type text struct{ subject, body string }

	en := map[model.LifecycleEvent]text{
		model.EventConfirmed: {
			"Your session is confirmed",
			`<p>Hello {{.Name}},</p><p>Your {{.Title}} is confirmed for {{.When}}.</p>{{if .MeetingLink}}<p>Join: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{end}}{{if .InvoiceNumber}}<p>Invoice: {{.InvoiceNumber}}</p>{{end}}`,
		},
		model.EventCompleted: {
			"Thank you for your session",
			`<p>Hello {{.Name}},</p><p>Your {{.Title}} on {{.When}} is completed. Thank you!</p>`,
		},
		model.EventCanceled: {
			"Your session was canceled",
			`<p>Hello {{.Name}},</p><p>Your {{.Title}} on {{.When}} was canceled.</p>`,
		},
		model.EventRescheduled: {
			"Your session was rescheduled",
			`<p>Hello {{.Name}},</p><p>Your {{.Title}} was moved to {{.When}}.</p>`,
		},
	}
	ja := map[model.LifecycleEvent]text{
		model.EventConfirmed: {
			"ご予約が確定しました",
			`<p>{{.Name}} 様</p><p>{{.Title}}のご予約が {{.When}} に確定しました。</p>{{if .MeetingLink}}<p>参加リンク: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{end}}{{if .InvoiceNumber}}<p>請求書番号: {{.InvoiceNumber}}</p>{{end}}`,
		},
		model.EventCompleted: {
			"ご利用ありがとうございました",
			`<p>{{.Name}} 様</p><p>{{.When}} の{{.Title}}が完了しました。</p>`,
		},
		model.EventCanceled: {
			"ご予約がキャンセルされました",
			`<p>{{.Name}} 様</p><p>{{.When}} の{{.Title}}はキャンセルされました。</p>`,
		},
		model.EventRescheduled: {
			"ご予約の日時が変更されました",
			`<p>{{.Name}} 様</p><p>{{.Title}}の日時を {{.When}} に変更しました。</p>`,
		},
	}

	var out []model.MessageTemplate
	for _, kind := range []model.BookingKind{model.BookingKindFreeTrial, model.BookingKindReservation} {
		for _, ev := range []model.LifecycleEvent{model.EventConfirmed, model.EventCompleted, model.EventCanceled, model.EventRescheduled} {
			if kind == model.BookingKindFreeTrial && ev == model.EventCanceled {
				continue
			}
			for locale, texts := range map[string]map[model.LifecycleEvent]text{model.LocaleEN: en, model.LocaleJA: ja} {
				t := texts[ev]
				out = append(out, model.MessageTemplate{
					Kind:    kind,
					Event:   ev,
					Locale:  locale,
					Subject: t.subject,
					Body:    t.body,
				})
			}
		}
	}
	return out
}
