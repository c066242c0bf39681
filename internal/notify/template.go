package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

// TemplateData — поля, доступные в шаблонах писем.
type TemplateData struct {
	Name          string
	Email         string
	Title         string
	When          string
	MeetingLink   string
	EventLink     string
	InvoiceNumber string
}

// Renderer ищет шаблон по (вид записи, событие, локаль) и рендерит его.
type Renderer struct {
	templates repository.TemplateRepository
}

func NewRenderer(templates repository.TemplateRepository) *Renderer {
	return &Renderer{templates: templates}
}

func (r *Renderer) lookup(ctx context.Context, kind model.BookingKind, event model.LifecycleEvent, locale string) (*model.MessageTemplate, error) {
	tpl, err := r.templates.Get(ctx, kind, event, locale)
	if errors.Is(err, gorm.ErrRecordNotFound) && locale != model.LocaleEN {
		tpl, err = r.templates.Get(ctx, kind, event, model.LocaleEN)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: template %s/%s/%s", apperr.ErrNotFound, kind, event, locale)
	}
	return tpl, err
}

// Render возвращает тему и HTML письма. Нет шаблона — apperr.ErrNotFound.
func (r *Renderer) Render(
	ctx context.Context,
	kind model.BookingKind,
	event model.LifecycleEvent,
	locale string,
	data TemplateData,
) (string, string, error) {
	tpl, err := r.lookup(ctx, kind, event, locale)
	if err != nil {
		return "", "", err
	}

	t, err := template.New(string(kind) + "/" + string(event)).Parse(tpl.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse template %s/%s/%s: %w", kind, event, tpl.Locale, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("execute template %s/%s/%s: %w", kind, event, tpl.Locale, err)
	}
	return tpl.Subject, buf.String(), nil
}
