package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"go.uber.org/zap"
)

// NightDrift is a night where the ledger disagrees with the bookings.
type NightDrift struct {
	Night    string `json:"night"`
	Ledger   int    `json:"ledger"`
	Expected int    `json:"expected"`
}

// ReconciliationReport compares a room type's ledger with the holds implied
// by its active bookings and pending restorations.
type ReconciliationReport struct {
	RoomTypeID    uuid.UUID    `json:"roomTypeId"`
	UnitCount     int          `json:"unitCount"`
	CheckedNights int          `json:"checkedNights"`
	Drift         []NightDrift `json:"drift"`
	OverCapacity  []string     `json:"overCapacity"`
	Repaired      bool         `json:"repaired"`
}

// ReconciliationService audits the ledger and, on request, rewrites drifted
// nights to match the bookings.
type ReconciliationService struct {
	unit         uow.UnitOfWork
	repos        uow.Repositories
	locker       lock.Locker
	availability *AvailabilityService
	logger       *zap.Logger
}

func NewReconciliationService(
	unit uow.UnitOfWork,
	repos uow.Repositories,
	locker lock.Locker,
	availability *AvailabilityService,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		unit:         unit,
		repos:        repos,
		locker:       locker,
		availability: availability,
		logger:       logger,
	}
}

// Reconcile reports drift for roomTypeID and repairs it when repair is set.
// The room type stays locked throughout, so no reservation or restoration
// interleaves with the audit.
func (s *ReconciliationService) Reconcile(ctx context.Context, roomTypeID uuid.UUID, repair bool) (*ReconciliationReport, error) {
	ctx, span := tracer.Start(ctx, "inventory.reconcile")
	defer span.End()

	unlock, err := s.locker.Lock(ctx, roomTypeLockKey(roomTypeID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock room type: %w", err)
	}
	defer unlock()

	rt, err := s.repos.RoomTypes.FindByID(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repos.Bookings.FindActiveByRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repos.Restorations.FindOutstandingByRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Ledger.Nights(ctx, roomTypeID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	expected := make(map[time.Time]int)
	for _, h := range inventory.HoldsFor(roomTypeID, bookings, outstanding) {
		for _, night := range h.Stay.NightDates() {
			expected[night] += h.Units
		}
	}
	actual := make(map[time.Time]int, len(rows))
	for _, row := range rows {
		actual[bookingDomain.NormalizeDate(row.Night)] = row.Reserved
	}

	nights := make([]time.Time, 0, len(expected)+len(actual))
	seen := make(map[time.Time]bool, cap(nights))
	for _, m := range []map[time.Time]int{expected, actual} {
		for night := range m {
			if !seen[night] {
				seen[night] = true
				nights = append(nights, night)
			}
		}
	}
	sort.Slice(nights, func(i, j int) bool { return nights[i].Before(nights[j]) })

	report := &ReconciliationReport{
		RoomTypeID:    roomTypeID,
		UnitCount:     rt.UnitCount(),
		CheckedNights: len(nights),
		Drift:         []NightDrift{},
		OverCapacity:  []string{},
	}
	var drifted []time.Time
	for _, night := range nights {
		want, have := expected[night], actual[night]
		if want != have {
			drifted = append(drifted, night)
			report.Drift = append(report.Drift, NightDrift{
				Night:    night.Format(bookingDomain.DateLayout),
				Ledger:   have,
				Expected: want,
			})
		}
		if want > rt.UnitCount() {
			report.OverCapacity = append(report.OverCapacity, night.Format(bookingDomain.DateLayout))
		}
	}

	if len(drifted) > 0 {
		s.logger.Warn("ledger drift detected",
			zap.String("room_type_id", roomTypeID.String()),
			zap.Int("nights", len(drifted)),
			zap.Bool("repair", repair),
		)
	}
	if !repair || len(drifted) == 0 {
		return report, nil
	}

	err = s.unit.Do(ctx, func(r uow.Repositories) error {
		for _, night := range drifted {
			if err := r.Ledger.SetReserved(ctx, roomTypeID, night, expected[night]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repair ledger: %w", err)
	}
	report.Repaired = true
	s.availability.Invalidate(roomTypeID)

	s.logger.Info("ledger repaired",
		zap.String("room_type_id", roomTypeID.String()),
		zap.Int("nights", len(drifted)),
	)
	return report, nil
}
