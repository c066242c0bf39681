package service

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

func mapSlot(s *model.Slot) *bookingpb.Slot {
	return &bookingpb.Slot{
		Date:      model.FormatDate(s.Date),
		TimeLabel: s.TimeLabel,
		Status:    string(s.Status),
	}
}

func mapSlots(slots []model.Slot) []*bookingpb.Slot {
	out := make([]*bookingpb.Slot, 0, len(slots))
	for i := range slots {
		out = append(out, mapSlot(&slots[i]))
	}
	return out
}

func mapEdits(edits []repository.SlotEdit) []*bookingpb.SlotEdit {
	out := make([]*bookingpb.SlotEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, &bookingpb.SlotEdit{
			Date:      model.FormatDate(e.Date),
			TimeLabel: e.TimeLabel,
			Status:    string(e.Status),
		})
	}
	return out
}

func mapBooking(b *model.Booking) *bookingpb.Booking {
	out := &bookingpb.Booking{
		Id:               b.ID.String(),
		Kind:             string(b.Kind),
		Status:           string(b.Status),
		Email:            b.Email,
		Name:             b.Name,
		Phone:            b.Phone,
		CalendarId:       b.Kind.CalendarID(),
		StartsAt:         timestamppb.New(b.DateTime),
		ServiceType:      string(b.ServiceType),
		Amount:           b.Amount,
		Currency:         b.Currency,
		PaymentMethod:    b.PaymentMethod,
		PaymentReference: b.PaymentReference,
		IsEdited:         b.IsEdited,
		Locale:           b.Locale,
		MeetingLink:      b.MeetingLink,
		EventLink:        b.EventLink,
		CreatedAt:        timestamppb.New(b.CreatedAt),
	}
	if b.Slot != nil {
		out.CalendarId = b.Slot.CalendarID
		out.Date = model.FormatDate(b.Slot.Date)
		out.TimeLabel = b.Slot.TimeLabel
	}
	if b.PaidAt != nil {
		out.PaidAt = timestamppb.New(*b.PaidAt)
	}
	if b.CanceledAt != nil {
		out.CanceledAt = timestamppb.New(*b.CanceledAt)
	}
	if b.InvoiceNumber != nil {
		out.InvoiceNumber = *b.InvoiceNumber
	}
	return out
}

func mapStepRecords(steps []model.FulfillmentStep) []*bookingpb.FulfillmentStep {
	out := make([]*bookingpb.FulfillmentStep, 0, len(steps))
	for _, st := range steps {
		out = append(out, &bookingpb.FulfillmentStep{
			Index:     int32(st.Step),
			Name:      string(st.Name),
			State:     string(st.State),
			Attempts:  int32(st.Attempts),
			LastError: st.LastError,
		})
	}
	return out
}

func mapReport(r *booking.Report) []*bookingpb.FulfillmentStep {
	if r == nil {
		return nil
	}
	out := make([]*bookingpb.FulfillmentStep, 0, len(r.Steps))
	for _, st := range r.Steps {
		step := &bookingpb.FulfillmentStep{
			Index:   int32(st.Index),
			Name:    string(st.Name),
			State:   string(st.State),
			Skipped: st.Skipped,
		}
		if st.Err != nil {
			step.LastError = st.Err.Error()
		}
		out = append(out, step)
	}
	return out
}
