package editor

import (
	"context"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/model"
)

// GRPCRemote ходит в CalendarService с токеном оператора.
type GRPCRemote struct {
	client bookingpb.CalendarServiceClient
	token  string
}

func NewGRPCRemote(client bookingpb.CalendarServiceClient, token string) *GRPCRemote {
	return &GRPCRemote{client: client, token: token}
}

func (r *GRPCRemote) Snapshot(ctx context.Context, calendarID string) (*Snapshot, error) {
	resp, err := r.client.ListSlots(ctx, &bookingpb.ListSlotsRequest{CalendarId: calendarID})
	if err != nil {
		return nil, err
	}
	return &Snapshot{Labels: resp.Labels, Slots: fromWire(resp.Slots)}, nil
}

func (r *GRPCRemote) Apply(ctx context.Context, calendarID string, edits []Slot) (*Snapshot, []Slot, error) {
	req := &bookingpb.ApplySlotBatchRequest{
		CalendarId: calendarID,
		Edits:      make([]*bookingpb.SlotEdit, 0, len(edits)),
	}
	for _, e := range edits {
		req.Edits = append(req.Edits, &bookingpb.SlotEdit{Date: e.Date, TimeLabel: e.TimeLabel, Status: string(e.Status)})
	}

	resp, err := r.client.ApplySlotBatch(auth.WithToken(ctx, r.token), req)
	if err != nil {
		return nil, nil, err
	}

	skipped := make([]Slot, 0, len(resp.Skipped))
	for _, s := range resp.Skipped {
		skipped = append(skipped, Slot{Date: s.Date, TimeLabel: s.TimeLabel, Status: model.SlotStatus(s.Status)})
	}
	return &Snapshot{Slots: fromWire(resp.Slots)}, skipped, nil
}

func fromWire(in []*bookingpb.Slot) []Slot {
	out := make([]Slot, 0, len(in))
	for _, s := range in {
		out = append(out, Slot{Date: s.Date, TimeLabel: s.TimeLabel, Status: model.SlotStatus(s.Status)})
	}
	return out
}
