package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type IdentityProof struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type Booking struct {
	Id               string                 `json:"id"`
	Kind             string                 `json:"kind"`
	Status           string                 `json:"status"`
	Email            string                 `json:"email"`
	Name             string                 `json:"name,omitempty"`
	Phone            string                 `json:"phone,omitempty"`
	CalendarId       string                 `json:"calendar_id"`
	Date             string                 `json:"date"`
	TimeLabel        string                 `json:"time_label"`
	StartsAt         *timestamppb.Timestamp `json:"starts_at"`
	ServiceType      string                 `json:"service_type,omitempty"`
	Amount           int64                  `json:"amount,omitempty"`
	Currency         string                 `json:"currency,omitempty"`
	PaymentMethod    string                 `json:"payment_method,omitempty"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
	PaidAt           *timestamppb.Timestamp `json:"paid_at,omitempty"`
	InvoiceNumber    string                 `json:"invoice_number,omitempty"`
	IsEdited         bool                   `json:"is_edited"`
	Locale           string                 `json:"locale"`
	MeetingLink      string                 `json:"meeting_link,omitempty"`
	EventLink        string                 `json:"event_link,omitempty"`
	CreatedAt        *timestamppb.Timestamp `json:"created_at"`
	CanceledAt       *timestamppb.Timestamp `json:"canceled_at,omitempty"`
}

type FulfillmentStep struct {
	Index     int32  `json:"index"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Attempts  int32  `json:"attempts,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

type CreateFreeTrialRequest struct {
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Email     string         `json:"email"`
	Date      string         `json:"date"`
	TimeLabel string         `json:"time_label"`
	Locale    string         `json:"locale,omitempty"`
	Proof     *IdentityProof `json:"proof"`
}

type CreateReservationRequest struct {
	Email            string         `json:"email"`
	Name             string         `json:"name,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Date             string         `json:"date"`
	TimeLabel        string         `json:"time_label"`
	ServiceType      string         `json:"service_type"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency,omitempty"`
	PaymentMethod    string         `json:"payment_method"`
	PaymentReference string         `json:"payment_reference,omitempty"`
	Locale           string         `json:"locale,omitempty"`
	Proof            *IdentityProof `json:"proof"`
}

// CreateBookingResponse — результат создания записи. Сбой шага исполнения
// не делает вызов ошибочным: запись уже сохранена, шаг указан в FailedStep.
type CreateBookingResponse struct {
	Booking         *Booking           `json:"booking"`
	InvoiceNumber   string             `json:"invoice_number,omitempty"`
	InvoiceDocument []byte             `json:"invoice_document_base64,omitempty"`
	Steps           []*FulfillmentStep `json:"steps,omitempty"`
	FailedStep      int32              `json:"failed_step,omitempty"`
	Error           string             `json:"error,omitempty"`
}

type ConfirmPaymentRequest struct {
	BookingId        string `json:"booking_id"`
	PaymentReference string `json:"payment_reference"`
}

type ResumeFulfillmentRequest struct {
	BookingId string `json:"booking_id"`
}

type FulfillmentResponse struct {
	BookingId  string             `json:"booking_id"`
	Steps      []*FulfillmentStep `json:"steps"`
	FailedStep int32              `json:"failed_step,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type RescheduleRequest struct {
	BookingId string         `json:"booking_id"`
	Date      string         `json:"date"`
	TimeLabel string         `json:"time_label"`
	Proof     *IdentityProof `json:"proof"`
}

type RescheduleResponse struct {
	Booking           *Booking `json:"booking"`
	NotificationError string   `json:"notification_error,omitempty"`
}

type CompleteBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type CancelBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type TransitionResponse struct {
	Booking           *Booking `json:"booking"`
	AlreadyInState    bool     `json:"already_in_state"`
	NotificationError string   `json:"notification_error,omitempty"`
}

type GetBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type GetBookingResponse struct {
	Booking *Booking           `json:"booking"`
	Steps   []*FulfillmentStep `json:"steps"`
}

type ListBookingsRequest struct {
	Kind     string `json:"kind,omitempty"`
	Status   string `json:"status,omitempty"`
	Email    string `json:"email,omitempty"`
	Page     int32  `json:"page,omitempty"`
	PageSize int32  `json:"page_size,omitempty"`
}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
	Page     int32      `json:"page"`
	PageSize int32      `json:"page_size"`
	HasNext  bool       `json:"has_next"`
	Total    int32      `json:"total"`
}

type GetInvoiceRequest struct {
	Number string `json:"number"`
}

type GetInvoiceResponse struct {
	Number    string                 `json:"number"`
	BookingId string                 `json:"booking_id"`
	IssuedAt  *timestamppb.Timestamp `json:"issued_at"`
	Document  []byte                 `json:"document_base64"`
}

const (
	BookingService_CreateFreeTrial_FullMethodName   = "/booking.v1.BookingService/CreateFreeTrial"
	BookingService_CreateReservation_FullMethodName = "/booking.v1.BookingService/CreateReservation"
	BookingService_ConfirmPayment_FullMethodName    = "/booking.v1.BookingService/ConfirmPayment"
	BookingService_ResumeFulfillment_FullMethodName = "/booking.v1.BookingService/ResumeFulfillment"
	BookingService_Reschedule_FullMethodName        = "/booking.v1.BookingService/Reschedule"
	BookingService_CompleteBooking_FullMethodName   = "/booking.v1.BookingService/CompleteBooking"
	BookingService_CancelBooking_FullMethodName     = "/booking.v1.BookingService/CancelBooking"
	BookingService_GetBooking_FullMethodName        = "/booking.v1.BookingService/GetBooking"
	BookingService_ListBookings_FullMethodName      = "/booking.v1.BookingService/ListBookings"
	BookingService_GetInvoice_FullMethodName        = "/booking.v1.BookingService/GetInvoice"
)

// BookingServiceClient — клиент сервиса жизненного цикла записей.
type BookingServiceClient interface {
	CreateFreeTrial(ctx context.Context, in *CreateFreeTrialRequest, opts ...grpc.CallOption) (*CreateBookingResponse, error)
	CreateReservation(ctx context.Context, in *CreateReservationRequest, opts ...grpc.CallOption) (*CreateBookingResponse, error)
	ConfirmPayment(ctx context.Context, in *ConfirmPaymentRequest, opts ...grpc.CallOption) (*FulfillmentResponse, error)
	ResumeFulfillment(ctx context.Context, in *ResumeFulfillmentRequest, opts ...grpc.CallOption) (*FulfillmentResponse, error)
	Reschedule(ctx context.Context, in *RescheduleRequest, opts ...grpc.CallOption) (*RescheduleResponse, error)
	CompleteBooking(ctx context.Context, in *CompleteBookingRequest, opts ...grpc.CallOption) (*TransitionResponse, error)
	CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*TransitionResponse, error)
	GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*GetBookingResponse, error)
	ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error)
	GetInvoice(ctx context.Context, in *GetInvoiceRequest, opts ...grpc.CallOption) (*GetInvoiceResponse, error)
}

type bookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) BookingServiceClient {
	return &bookingServiceClient{cc}
}

func (c *bookingServiceClient) CreateFreeTrial(ctx context.Context, in *CreateFreeTrialRequest, opts ...grpc.CallOption) (*CreateBookingResponse, error) {
	out := new(CreateBookingResponse)
	if err := c.cc.Invoke(ctx, BookingService_CreateFreeTrial_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CreateReservation(ctx context.Context, in *CreateReservationRequest, opts ...grpc.CallOption) (*CreateBookingResponse, error) {
	out := new(CreateBookingResponse)
	if err := c.cc.Invoke(ctx, BookingService_CreateReservation_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ConfirmPayment(ctx context.Context, in *ConfirmPaymentRequest, opts ...grpc.CallOption) (*FulfillmentResponse, error) {
	out := new(FulfillmentResponse)
	if err := c.cc.Invoke(ctx, BookingService_ConfirmPayment_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ResumeFulfillment(ctx context.Context, in *ResumeFulfillmentRequest, opts ...grpc.CallOption) (*FulfillmentResponse, error) {
	out := new(FulfillmentResponse)
	if err := c.cc.Invoke(ctx, BookingService_ResumeFulfillment_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) Reschedule(ctx context.Context, in *RescheduleRequest, opts ...grpc.CallOption) (*RescheduleResponse, error) {
	out := new(RescheduleResponse)
	if err := c.cc.Invoke(ctx, BookingService_Reschedule_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CompleteBooking(ctx context.Context, in *CompleteBookingRequest, opts ...grpc.CallOption) (*TransitionResponse, error) {
	out := new(TransitionResponse)
	if err := c.cc.Invoke(ctx, BookingService_CompleteBooking_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) CancelBooking(ctx context.Context, in *CancelBookingRequest, opts ...grpc.CallOption) (*TransitionResponse, error) {
	out := new(TransitionResponse)
	if err := c.cc.Invoke(ctx, BookingService_CancelBooking_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*GetBookingResponse, error) {
	out := new(GetBookingResponse)
	if err := c.cc.Invoke(ctx, BookingService_GetBooking_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.cc.Invoke(ctx, BookingService_ListBookings_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) GetInvoice(ctx context.Context, in *GetInvoiceRequest, opts ...grpc.CallOption) (*GetInvoiceResponse, error) {
	out := new(GetInvoiceResponse)
	if err := c.cc.Invoke(ctx, BookingService_GetInvoice_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingServiceServer — серверная часть сервиса жизненного цикла записей.
type BookingServiceServer interface {
	CreateFreeTrial(context.Context, *CreateFreeTrialRequest) (*CreateBookingResponse, error)
	CreateReservation(context.Context, *CreateReservationRequest) (*CreateBookingResponse, error)
	ConfirmPayment(context.Context, *ConfirmPaymentRequest) (*FulfillmentResponse, error)
	ResumeFulfillment(context.Context, *ResumeFulfillmentRequest) (*FulfillmentResponse, error)
	Reschedule(context.Context, *RescheduleRequest) (*RescheduleResponse, error)
	CompleteBooking(context.Context, *CompleteBookingRequest) (*TransitionResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*TransitionResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*GetBookingResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	GetInvoice(context.Context, *GetInvoiceRequest) (*GetInvoiceResponse, error)
	mustEmbedUnimplementedBookingServiceServer()
}

type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) CreateFreeTrial(context.Context, *CreateFreeTrialRequest) (*CreateBookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateFreeTrial not implemented")
}
func (UnimplementedBookingServiceServer) CreateReservation(context.Context, *CreateReservationRequest) (*CreateBookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateReservation not implemented")
}
func (UnimplementedBookingServiceServer) ConfirmPayment(context.Context, *ConfirmPaymentRequest) (*FulfillmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ConfirmPayment not implemented")
}
func (UnimplementedBookingServiceServer) ResumeFulfillment(context.Context, *ResumeFulfillmentRequest) (*FulfillmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ResumeFulfillment not implemented")
}
func (UnimplementedBookingServiceServer) Reschedule(context.Context, *RescheduleRequest) (*RescheduleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Reschedule not implemented")
}
func (UnimplementedBookingServiceServer) CompleteBooking(context.Context, *CompleteBookingRequest) (*TransitionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CompleteBooking not implemented")
}
func (UnimplementedBookingServiceServer) CancelBooking(context.Context, *CancelBookingRequest) (*TransitionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CancelBooking not implemented")
}
func (UnimplementedBookingServiceServer) GetBooking(context.Context, *GetBookingRequest) (*GetBookingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBooking not implemented")
}
func (UnimplementedBookingServiceServer) ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListBookings not implemented")
}
func (UnimplementedBookingServiceServer) GetInvoice(context.Context, *GetInvoiceRequest) (*GetInvoiceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetInvoice not implemented")
}
func (UnimplementedBookingServiceServer) mustEmbedUnimplementedBookingServiceServer() {}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

func _BookingService_CreateFreeTrial_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateFreeTrialRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).CreateFreeTrial(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_CreateFreeTrial_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).CreateFreeTrial(ctx, req.(*CreateFreeTrialRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_CreateReservation_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateReservationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).CreateReservation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_CreateReservation_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).CreateReservation(ctx, req.(*CreateReservationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_ConfirmPayment_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConfirmPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).ConfirmPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_ConfirmPayment_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).ConfirmPayment(ctx, req.(*ConfirmPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_ResumeFulfillment_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResumeFulfillmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).ResumeFulfillment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_ResumeFulfillment_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).ResumeFulfillment(ctx, req.(*ResumeFulfillmentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_Reschedule_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RescheduleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).Reschedule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_Reschedule_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).Reschedule(ctx, req.(*RescheduleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_CompleteBooking_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CompleteBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).CompleteBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_CompleteBooking_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).CompleteBooking(ctx, req.(*CompleteBookingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_CancelBooking_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).CancelBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_CancelBooking_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).CancelBooking(ctx, req.(*CancelBookingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_GetBooking_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_GetBooking_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).GetBooking(ctx, req.(*GetBookingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_ListBookings_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBookingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).ListBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_ListBookings_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).ListBookings(ctx, req.(*ListBookingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BookingService_GetInvoice_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetInvoiceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServiceServer).GetInvoice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BookingService_GetInvoice_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingServiceServer).GetInvoice(ctx, req.(*GetInvoiceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "booking.v1.BookingService",
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateFreeTrial", Handler: _BookingService_CreateFreeTrial_Handler},
		{MethodName: "CreateReservation", Handler: _BookingService_CreateReservation_Handler},
		{MethodName: "ConfirmPayment", Handler: _BookingService_ConfirmPayment_Handler},
		{MethodName: "ResumeFulfillment", Handler: _BookingService_ResumeFulfillment_Handler},
		{MethodName: "Reschedule", Handler: _BookingService_Reschedule_Handler},
		{MethodName: "CompleteBooking", Handler: _BookingService_CompleteBooking_Handler},
		{MethodName: "CancelBooking", Handler: _BookingService_CancelBooking_Handler},
		{MethodName: "GetBooking", Handler: _BookingService_GetBooking_Handler},
		{MethodName: "ListBookings", Handler: _BookingService_ListBookings_Handler},
		{MethodName: "GetInvoice", Handler: _BookingService_GetInvoice_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking",
}
