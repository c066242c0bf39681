package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Slot struct {
	Date      string `json:"date"`
	TimeLabel string `json:"time_label"`
	Status    string `json:"status"`
}

type SlotEdit struct {
	Date      string `json:"date"`
	TimeLabel string `json:"time_label"`
	Status    string `json:"status"`
}

type ListSlotsRequest struct {
	CalendarId string `json:"calendar_id"`
	Page       int32  `json:"page,omitempty"`
	PageSize   int32  `json:"page_size,omitempty"`
}

func (x *ListSlotsRequest) GetCalendarId() string {
	if x != nil {
		return x.CalendarId
	}
	return ""
}

type ListSlotsResponse struct {
	CalendarId string   `json:"calendar_id"`
	TimeZone   string   `json:"time_zone"`
	Labels     []string `json:"labels"`
	Slots      []*Slot  `json:"slots"`
	Page       int32    `json:"page"`
	PageSize   int32    `json:"page_size"`
	HasNext    bool     `json:"has_next"`
	Total      int32    `json:"total"`
}

type SetSlotStatusRequest struct {
	CalendarId string `json:"calendar_id"`
	Date       string `json:"date"`
	TimeLabel  string `json:"time_label"`
	Status     string `json:"status"`
}

type SetSlotStatusResponse struct {
	Slot *Slot `json:"slot"`
}

type ApplySlotBatchRequest struct {
	CalendarId string      `json:"calendar_id"`
	Edits      []*SlotEdit `json:"edits"`
}

type ApplySlotBatchResponse struct {
	Slots   []*Slot     `json:"slots"`
	Skipped []*SlotEdit `json:"skipped"`
}

const (
	CalendarService_ListSlots_FullMethodName      = "/booking.v1.CalendarService/ListSlots"
	CalendarService_SetSlotStatus_FullMethodName  = "/booking.v1.CalendarService/SetSlotStatus"
	CalendarService_ApplySlotBatch_FullMethodName = "/booking.v1.CalendarService/ApplySlotBatch"
)

// CalendarServiceClient — клиент сервиса доступности слотов.
type CalendarServiceClient interface {
	ListSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error)
	SetSlotStatus(ctx context.Context, in *SetSlotStatusRequest, opts ...grpc.CallOption) (*SetSlotStatusResponse, error)
	ApplySlotBatch(ctx context.Context, in *ApplySlotBatchRequest, opts ...grpc.CallOption) (*ApplySlotBatchResponse, error)
}

type calendarServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCalendarServiceClient(cc grpc.ClientConnInterface) CalendarServiceClient {
	return &calendarServiceClient{cc}
}

func (c *calendarServiceClient) ListSlots(ctx context.Context, in *ListSlotsRequest, opts ...grpc.CallOption) (*ListSlotsResponse, error) {
	out := new(ListSlotsResponse)
	if err := c.cc.Invoke(ctx, CalendarService_ListSlots_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) SetSlotStatus(ctx context.Context, in *SetSlotStatusRequest, opts ...grpc.CallOption) (*SetSlotStatusResponse, error) {
	out := new(SetSlotStatusResponse)
	if err := c.cc.Invoke(ctx, CalendarService_SetSlotStatus_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) ApplySlotBatch(ctx context.Context, in *ApplySlotBatchRequest, opts ...grpc.CallOption) (*ApplySlotBatchResponse, error) {
	out := new(ApplySlotBatchResponse)
	if err := c.cc.Invoke(ctx, CalendarService_ApplySlotBatch_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// CalendarServiceServer — серверная часть сервиса доступности слотов.
type CalendarServiceServer interface {
	ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
	SetSlotStatus(context.Context, *SetSlotStatusRequest) (*SetSlotStatusResponse, error)
	ApplySlotBatch(context.Context, *ApplySlotBatchRequest) (*ApplySlotBatchResponse, error)
	mustEmbedUnimplementedCalendarServiceServer()
}

type UnimplementedCalendarServiceServer struct{}

func (UnimplementedCalendarServiceServer) ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListSlots not implemented")
}
func (UnimplementedCalendarServiceServer) SetSlotStatus(context.Context, *SetSlotStatusRequest) (*SetSlotStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SetSlotStatus not implemented")
}
func (UnimplementedCalendarServiceServer) ApplySlotBatch(context.Context, *ApplySlotBatchRequest) (*ApplySlotBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ApplySlotBatch not implemented")
}
func (UnimplementedCalendarServiceServer) mustEmbedUnimplementedCalendarServiceServer() {}

func RegisterCalendarServiceServer(s grpc.ServiceRegistrar, srv CalendarServiceServer) {
	s.RegisterService(&CalendarService_ServiceDesc, srv)
}

func _CalendarService_ListSlots_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListSlotsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).ListSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_ListSlots_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).ListSlots(ctx, req.(*ListSlotsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CalendarService_SetSlotStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetSlotStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).SetSlotStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_SetSlotStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).SetSlotStatus(ctx, req.(*SetSlotStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CalendarService_ApplySlotBatch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ApplySlotBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalendarServiceServer).ApplySlotBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CalendarService_ApplySlotBatch_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalendarServiceServer).ApplySlotBatch(ctx, req.(*ApplySlotBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var CalendarService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "booking.v1.CalendarService",
	HandlerType: (*CalendarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSlots", Handler: _CalendarService_ListSlots_Handler},
		{MethodName: "SetSlotStatus", Handler: _CalendarService_SetSlotStatus_Handler},
		{MethodName: "ApplySlotBatch", Handler: _CalendarService_ApplySlotBatch_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/calendar",
}
