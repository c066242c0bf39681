package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/notify"
)

func sessionTitle(b *model.Booking) string {
	if b.Kind == model.BookingKindFreeTrial {
		return "Free trial session"
	}
	if b.ServiceType == model.ServiceTypeInPerson {
		return "Session (in person)"
	}
	return "Session (online)"
}

func sessionDescription(b *model.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking: %s\n", b.ID)
	if b.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", b.Name)
	}
	fmt.Fprintf(&sb, "Email: %s\n", b.Email)
	if b.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	}
	return sb.String()
}

func (s *Service) templateData(ctx context.Context, b *model.Booking) (notify.TemplateData, error) {
	slot, err := s.slots.Slot(ctx, b.SlotID)
	if err != nil {
		return notify.TemplateData{}, err
	}
	cal, err := s.slots.Calendar(ctx, slot.CalendarID)
	if err != nil {
		return notify.TemplateData{}, err
	}
	tr, err := s.slots.SlotRange(cal, slot.Date, slot.TimeLabel)
	if err != nil {
		return notify.TemplateData{}, err
	}

	name := b.Name
	if name == "" {
		name = b.Email
	}
	data := notify.TemplateData{
		Name:        name,
		Email:       b.Email,
		Title:       sessionTitle(b),
		When:        calendar.FormatSlotForUser(tr, cal.Location(), b.Locale),
		MeetingLink: b.MeetingLink,
		EventLink:   b.EventLink,
	}
	if b.InvoiceNumber != nil {
		data.InvoiceNumber = *b.InvoiceNumber
	}
	return data, nil
}
