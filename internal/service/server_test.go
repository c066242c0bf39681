package service_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/dbtest"
	"github.com/Leganyst/session-booking/internal/identity"
	"github.com/Leganyst/session-booking/internal/invoice"
	"github.com/Leganyst/session-booking/internal/meeting"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/notify"
	"github.com/Leganyst/session-booking/internal/payment"
	"github.com/Leganyst/session-booking/internal/repository"
	"github.com/Leganyst/session-booking/internal/service"
)

var now = time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)

// codeBox запоминает последний код, отправленный на каждый email.
type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) SendCode(_ context.Context, email, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[email] = code
	return nil
}

func (b *codeBox) last(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type staticMeetings struct{}

func (staticMeetings) CreateMeeting(context.Context, time.Time, time.Time, string, string) (meeting.Meeting, error) {
	return meeting.Meeting{JoinLink: "https://meet.example.com/x", EventLink: "https://calendar.example.com/e"}, nil
}

type env struct {
	calendar bookingpb.CalendarServiceClient
	booking  bookingpb.BookingServiceClient
	identity bookingpb.IdentityServiceClient
	health   healthpb.HealthClient
	codes    *codeBox
}

func startServer(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	gdb := dbtest.Open(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// оператор для входа
	role, err := repository.EnsureRole(ctx, gdb, model.RoleAdmin)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	operators := repository.NewGormOperatorRepository(gdb)
	require.NoError(t, operators.Create(ctx, &model.Operator{
		Email:        "ops@example.com",
		PasswordHash: string(hash),
		RoleID:       role.ID,
	}))

	slots := calendar.NewManager(
		repository.NewGormCalendarRepository(gdb),
		repository.NewGormSlotRepository(gdb),
		nil,
	).WithClock(func() time.Time { return now })

	box := &codeBox{codes: map[string]string{}}
	ids := identity.NewService(rdb, 5*time.Minute, box, nil, nil)
	authn := auth.NewAuthenticator(operators, "test-secret", time.Hour)

	bookings := booking.NewService(booking.Deps{
		Bookings:  repository.NewGormBookingRepository(gdb),
		Invoices:  repository.NewGormInvoiceRepository(gdb),
		Steps:     repository.NewGormFulfillmentRepository(gdb),
		Slots:     slots,
		Issuer:    invoice.NewIssuer(invoice.Party{Name: "Test Studio"}, time.UTC),
		Identity:  ids,
		Meetings:  staticMeetings{},
		Notifier:  notify.NewLogSender(nil),
		Templates: notify.NewRenderer(repository.NewGormTemplateRepository(gdb)),
		Payments:  payment.AcceptAll{},
		Currency:  "JPY",
	})

	srv, _ := service.NewGRPCServer(service.Services{
		Calendar: service.NewCalendarService(slots),
		Booking:  service.NewBookingService(bookings, nil),
		Identity: service.NewIdentityService(ids, 5*time.Minute, authn),
		Auth:     authn,
	}, nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &env{
		calendar: bookingpb.NewCalendarServiceClient(conn),
		booking:  bookingpb.NewBookingServiceClient(conn),
		identity: bookingpb.NewIdentityServiceClient(conn),
		health:   healthpb.NewHealthClient(conn),
		codes:    box,
	}
}

func (e *env) login(t *testing.T) context.Context {
	t.Helper()
	resp, err := e.identity.Login(context.Background(), &bookingpb.LoginRequest{Email: "ops@example.com", Password: "s3cret"})
	require.NoError(t, err)
	return auth.WithToken(context.Background(), resp.Token)
}

func (e *env) proof(t *testing.T, email string) *bookingpb.IdentityProof {
	t.Helper()
	resp, err := e.identity.SendIdentityCode(context.Background(), &bookingpb.SendIdentityCodeRequest{Email: email})
	require.NoError(t, err)
	return &bookingpb.IdentityProof{Token: resp.Token, Code: e.codes.last(email)}
}

func TestServer_FreeTrialFlow(t *testing.T) {
	e := startServer(t)
	admin := e.login(t)

	batch, err := e.calendar.ApplySlotBatch(admin, &bookingpb.ApplySlotBatchRequest{
		CalendarId: model.CalendarFreeTrial,
		Edits: []*bookingpb.SlotEdit{
			{Date: "2025-11-20", TimeLabel: "08:00-08:15", Status: "available"},
			{Date: "2025-11-20", TimeLabel: "08:15-08:30", Status: "available"},
		},
	})
	require.NoError(t, err)
	require.Len(t, batch.Slots, 2)

	created, err := e.booking.CreateFreeTrial(context.Background(), &bookingpb.CreateFreeTrialRequest{
		Name:      "Aiko",
		Phone:     "+81-90-0000-0000",
		Email:     "aiko@example.com",
		Date:      "2025-11-20",
		TimeLabel: "08:00-08:15",
		Proof:     e.proof(t, "aiko@example.com"),
	})
	require.NoError(t, err)
	assert.Zero(t, created.FailedStep)
	assert.Len(t, created.Steps, 3)
	assert.Equal(t, "08:00-08:15", created.Booking.TimeLabel)
	assert.Equal(t, "2025-11-20", created.Booking.Date)
	assert.Equal(t, "https://meet.example.com/x", created.Booking.MeetingLink)

	list, err := e.calendar.ListSlots(context.Background(), &bookingpb.ListSlotsRequest{CalendarId: model.CalendarFreeTrial})
	require.NoError(t, err)
	require.Len(t, list.Slots, 2)
	assert.Equal(t, "booked", list.Slots[0].Status)
	assert.Len(t, list.Labels, 48)

	// занятый слот не закрыть
	_, err = e.calendar.SetSlotStatus(admin, &bookingpb.SetSlotStatusRequest{
		CalendarId: model.CalendarFreeTrial,
		Date:       "2025-11-20",
		TimeLabel:  "08:00-08:15",
		Status:     "closed",
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	got, err := e.booking.GetBooking(admin, &bookingpb.GetBookingRequest{BookingId: created.Booking.Id})
	require.NoError(t, err)
	require.Len(t, got.Steps, 3)
	assert.Equal(t, "done", got.Steps[2].State)
}

func TestServer_ReservationInvoice(t *testing.T) {
	e := startServer(t)
	admin := e.login(t)

	_, err := e.calendar.SetSlotStatus(admin, &bookingpb.SetSlotStatusRequest{
		CalendarId: model.CalendarReservation,
		Date:       "2025-11-21",
		TimeLabel:  "10:00-11:30",
		Status:     "available",
	})
	require.NoError(t, err)

	created, err := e.booking.CreateReservation(context.Background(), &bookingpb.CreateReservationRequest{
		Email:         "ken@example.com",
		Date:          "2025-11-21",
		TimeLabel:     "10:00-11:30",
		ServiceType:   "online",
		Amount:        15000,
		PaymentMethod: "card",
		Proof:         e.proof(t, "ken@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-11-19-000001", created.InvoiceNumber)
	assert.NotEmpty(t, created.InvoiceDocument)
	assert.Empty(t, created.Steps)

	confirmed, err := e.booking.ConfirmPayment(admin, &bookingpb.ConfirmPaymentRequest{
		BookingId:        created.Booking.Id,
		PaymentReference: "manual-123",
	})
	require.NoError(t, err)
	assert.Zero(t, confirmed.FailedStep)

	inv, err := e.booking.GetInvoice(admin, &bookingpb.GetInvoiceRequest{Number: created.InvoiceNumber})
	require.NoError(t, err)
	assert.Equal(t, created.Booking.Id, inv.BookingId)
	assert.Equal(t, created.InvoiceDocument, inv.Document)

	canceled, err := e.booking.CancelBooking(admin, &bookingpb.CancelBookingRequest{BookingId: created.Booking.Id})
	require.NoError(t, err)
	assert.Equal(t, "canceled", canceled.Booking.Status)
	assert.NotNil(t, canceled.Booking.CanceledAt)

	list, err := e.booking.ListBookings(admin, &bookingpb.ListBookingsRequest{Status: "canceled"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), list.Total)
}

func TestServer_ErrorCodes(t *testing.T) {
	e := startServer(t)
	ctx := context.Background()

	// без токена
	_, err := e.calendar.ApplySlotBatch(ctx, &bookingpb.ApplySlotBatchRequest{CalendarId: model.CalendarFreeTrial})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = e.booking.ListBookings(ctx, &bookingpb.ListBookingsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = e.identity.Login(ctx, &bookingpb.LoginRequest{Email: "ops@example.com", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = e.calendar.ListSlots(ctx, &bookingpb.ListSlotsRequest{CalendarId: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	// неверный код подтверждения
	admin := e.login(t)
	_, err = e.calendar.SetSlotStatus(admin, &bookingpb.SetSlotStatusRequest{
		CalendarId: model.CalendarFreeTrial, Date: "2025-11-20", TimeLabel: "08:00-08:15", Status: "available",
	})
	require.NoError(t, err)
	proof := e.proof(t, "a@example.com")
	proof.Code += "0"
	_, err = e.booking.CreateFreeTrial(ctx, &bookingpb.CreateFreeTrialRequest{
		Name: "A", Phone: "1", Email: "a@example.com", Date: "2025-11-20", TimeLabel: "08:00-08:15", Proof: proof,
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = e.booking.GetBooking(admin, &bookingpb.GetBookingRequest{BookingId: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_Health(t *testing.T) {
	e := startServer(t)
	resp, err := e.health.Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: bookingpb.BookingService_ServiceDesc.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
