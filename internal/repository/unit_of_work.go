package repository

import (
	"context"

	"github.com/innhub/service-reservation/internal/domain/uow"
	"gorm.io/gorm"
)

// Models lists every GORM model, for AutoMigrate in development and tests.
func Models() []any {
	return []any{
		&RoomTypeModel{},
		&RoomNightModel{},
		&BookingModel{},
		&BookingRoomModel{},
		&RestorationTaskModel{},
	}
}

// NewRepositories binds every repository to db, which may be a transaction.
func NewRepositories(db *gorm.DB) uow.Repositories {
	return uow.Repositories{
		Bookings:     NewGormBookingRepository(db),
		RoomTypes:    NewGormRoomTypeRepository(db),
		Ledger:       NewGormLedger(db),
		Restorations: NewGormRestorationRepository(db),
	}
}

// GormUnitOfWork runs callbacks inside a database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(r uow.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
