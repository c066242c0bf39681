// Package meeting создаёт встречи с видеосвязью у внешнего провайдера.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Leganyst/session-booking/internal/apperr"
)

// ErrNotConfigured — провайдер встреч не настроен.
var ErrNotConfigured = errors.New("meeting provider is not configured")

type Meeting struct {
	JoinLink  string
	EventLink string
}

type Provider interface {
	CreateMeeting(ctx context.Context, start, end time.Time, title, description string) (Meeting, error)
}

// GoogleProvider создаёт событие в Google Calendar с конференцией Google Meet.
type GoogleProvider struct {
	svc        *calendar.Service
	calendarID string
}

// NewGoogleProvider. opts — учётные данные (option.WithCredentialsFile) или
// тестовый endpoint.
func NewGoogleProvider(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleProvider, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleProvider{svc: svc, calendarID: calendarID}, nil
}

func (p *GoogleProvider) CreateMeeting(ctx context.Context, start, end time.Time, title, description string) (Meeting, error) {
	ev := &calendar.Event{
		Summary:     title,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := p.svc.Events.Insert(p.calendarID, ev).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return Meeting{}, apperr.External("google calendar", err)
	}

	m := Meeting{JoinLink: created.HangoutLink, EventLink: created.HtmlLink}
	if m.JoinLink == "" && created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				m.JoinLink = ep.Uri
				break
			}
		}
	}
	return m, nil
}

// Disabled всегда отвечает ErrNotConfigured.
type Disabled struct{}

func (Disabled) CreateMeeting(context.Context, time.Time, time.Time, string, string) (Meeting, error) {
	return Meeting{}, apperr.External("meeting provider", ErrNotConfigured)
}
