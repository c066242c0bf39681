package service

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

type CalendarService struct {
	bookingpb.UnimplementedCalendarServiceServer

	slots *calendar.Manager
}

func NewCalendarService(slots *calendar.Manager) *CalendarService {
	return &CalendarService{slots: slots}
}

// ListSlots — публичная доступность календаря. pageSize 0 возвращает всё.
func (s *CalendarService) ListSlots(
	ctx context.Context,
	req *bookingpb.ListSlotsRequest,
) (*bookingpb.ListSlotsResponse, error) {
	if req.GetCalendarId() == "" {
		return nil, status.Error(codes.InvalidArgument, "calendar_id is required")
	}

	cal, err := s.slots.Calendar(ctx, req.GetCalendarId())
	if err != nil {
		return nil, toStatus(err)
	}
	slots, err := s.slots.ListSlots(ctx, cal.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	labels, err := cal.LabelList()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "calendar labels: %v", err)
	}

	p := calendar.Paginate(slots, int(req.Page), int(req.PageSize))
	return &bookingpb.ListSlotsResponse{
		CalendarId: cal.ID,
		TimeZone:   cal.TimeZone,
		Labels:     labels,
		Slots:      mapSlots(p.Items),
		Page:       int32(p.Page),
		PageSize:   int32(p.PageSize),
		HasNext:    p.HasNext,
		Total:      int32(p.Total),
	}, nil
}

// SetSlotStatus — прямая правка одного слота администратором.
func (s *CalendarService) SetSlotStatus(
	ctx context.Context,
	req *bookingpb.SetSlotStatusRequest,
) (*bookingpb.SetSlotStatusResponse, error) {
	if req.CalendarId == "" {
		return nil, status.Error(codes.InvalidArgument, "calendar_id is required")
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date %q", req.Date)
	}

	slot, err := s.slots.SetStatus(ctx, req.CalendarId, date, req.TimeLabel, model.SlotStatus(req.Status))
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.SetSlotStatusResponse{Slot: mapSlot(slot)}, nil
}

// ApplySlotBatch применяет пакет правок и возвращает свежий список слотов.
func (s *CalendarService) ApplySlotBatch(
	ctx context.Context,
	req *bookingpb.ApplySlotBatchRequest,
) (*bookingpb.ApplySlotBatchResponse, error) {
	if req.CalendarId == "" {
		return nil, status.Error(codes.InvalidArgument, "calendar_id is required")
	}

	edits := make([]repository.SlotEdit, 0, len(req.Edits))
	for i, e := range req.Edits {
		if e == nil {
			return nil, status.Errorf(codes.InvalidArgument, "edit %d is empty", i)
		}
		date, err := model.ParseDate(e.Date)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "edit %d: invalid date %q", i, e.Date)
		}
		edits = append(edits, repository.SlotEdit{
			Date:      date,
			TimeLabel: e.TimeLabel,
			Status:    model.SlotStatus(e.Status),
		})
	}

	res, err := s.slots.ApplyBatch(ctx, req.CalendarId, edits)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.ApplySlotBatchResponse{
		Slots:   mapSlots(res.Slots),
		Skipped: mapEdits(res.Skipped),
	}, nil
}
