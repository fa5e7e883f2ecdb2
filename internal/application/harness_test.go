package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/application"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/auth"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"github.com/innhub/service-reservation/internal/repository"
	"github.com/innhub/service-reservation/internal/repository/repotest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []cloudevent.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event cloudevent.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// faultyUnit makes Ledger.Release fail for selected room types.
type faultyUnit struct {
	inner uow.UnitOfWork

	mu      sync.Mutex
	failing map[uuid.UUID]bool
}

func (f *faultyUnit) setFailing(id uuid.UUID, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[id] = fail
}

func (f *faultyUnit) fails(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failing[id]
}

func (f *faultyUnit) Do(ctx context.Context, fn func(r uow.Repositories) error) error {
	return f.inner.Do(ctx, func(r uow.Repositories) error {
		r.Ledger = &faultyLedger{Ledger: r.Ledger, unit: f}
		return fn(r)
	})
}

type faultyLedger struct {
	inventory.Ledger
	unit *faultyUnit
}

func (l *faultyLedger) Release(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay, units int) (int, error) {
	if l.unit.fails(roomTypeID) {
		return 0, errors.New("ledger unavailable")
	}
	return l.Ledger.Release(ctx, roomTypeID, stay, units)
}

type testEnv struct {
	db           *gorm.DB
	repos        uow.Repositories
	faults       *faultyUnit
	events       *recordingPublisher
	availability *application.AvailabilityService
	compensator  *application.Compensator
	worker       *application.RestorationWorker
	bookings     *application.BookingService
	rooms        *application.RoomTypeService
	reconciler   *application.ReconciliationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := repotest.NewDB(t)

	repos := repository.NewRepositories(db)
	faults := &faultyUnit{inner: repository.NewGormUnitOfWork(db), failing: map[uuid.UUID]bool{}}
	locker := lock.NewLocalLocker()
	events := &recordingPublisher{}

	availability := application.NewAvailabilityService(repos, time.Minute, logger)
	compensator := application.NewCompensator(faults, repos, locker, availability, events, 3, logger)

	return &testEnv{
		db:           db,
		repos:        repos,
		faults:       faults,
		events:       events,
		availability: availability,
		compensator:  compensator,
		worker:       application.NewRestorationWorker(compensator, repos, time.Hour, logger),
		bookings: application.NewBookingService(
			faults, repos, locker, bookingDomain.NewNightlyRatePricing(),
			availability, compensator, events, bookingDomain.StatusPending, logger,
		),
		rooms:      application.NewRoomTypeService(faults, repos, locker, availability, logger),
		reconciler: application.NewReconciliationService(faults, repos, locker, availability, logger),
	}
}

var (
	staff = application.Actor{UserID: uuid.New(), Role: auth.RoleStaff}
	guest = application.Actor{UserID: uuid.New(), Role: auth.RoleGuest}
)

func guestDetails() []bookingDomain.PersonDetail {
	return []bookingDomain.PersonDetail{{Name: "Aisyah Rahman", Email: "aisyah@example.com", Phone: "+60123456789"}}
}

func bookingRequest(checkIn, checkOut string, rooms ...application.RoomRequest) application.CreateBookingRequest {
	return application.CreateBookingRequest{
		Rooms:         rooms,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		PersonDetails: guestDetails(),
	}
}

func room(id uuid.UUID, units int) application.RoomRequest {
	return application.RoomRequest{RoomID: id.String(), NumberOfRooms: units}
}

func (e *testEnv) mustBook(t *testing.T, actor application.Actor, req application.CreateBookingRequest) *application.BookingDTO {
	t.Helper()
	bk, err := e.bookings.CreateBooking(context.Background(), actor, req)
	require.NoError(t, err)
	return bk
}

func (e *testEnv) available(t *testing.T, roomTypeID uuid.UUID, checkIn, checkOut string) int {
	t.Helper()
	stay, err := application.ParseStay(checkIn, checkOut)
	require.NoError(t, err)
	a, err := e.availability.Check(context.Background(), roomTypeID, stay)
	require.NoError(t, err)
	return a.AvailableUnits
}

// ledger returns the reserved count per night for a room type.
func (e *testEnv) ledger(t *testing.T, roomTypeID uuid.UUID) map[string]int {
	t.Helper()
	rows, err := e.repos.Ledger.Nights(context.Background(), roomTypeID, time.Time{}, time.Time{})
	require.NoError(t, err)
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Night.Format(bookingDomain.DateLayout)] = r.Reserved
	}
	return out
}

func strPtr(s string) *string { return &s }
