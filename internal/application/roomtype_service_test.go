package application_test

import (
	"context"
	"testing"

	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestRoomTypeService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{
		Name: "Family Suite", NightlyRate: 48000, UnitCount: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "MYR", created.Currency)
	assert.True(t, created.IsAvailable)

	_, err = env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Broken", UnitCount: -1})
	assert.True(t, domain.IsValidation(err), "got %v", err)

	updated, err := env.rooms.UpdateRoomType(ctx, created.ID, application.UpdateRoomTypeRequest{
		Name: strPtr("Family Suite XL"), UnitCount: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Family Suite XL", updated.Name)
	assert.False(t, updated.IsAvailable)
	assert.Greater(t, updated.Version, created.Version)

	all, err := env.rooms.ListRoomTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, env.rooms.DeleteRoomType(ctx, created.ID))
	_, err = env.rooms.GetRoomType(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestRoomTypeService_UnitCountCannotDropBelowHeld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rt, err := env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Twin", NightlyRate: 15000, UnitCount: 4})
	require.NoError(t, err)
	env.mustBook(t, staff, bookingRequest("2030-06-10", "2030-06-12", room(rt.ID, 3)))
	require.Equal(t, 1, env.available(t, rt.ID, "2030-06-10", "2030-06-12"))

	_, err = env.rooms.UpdateRoomType(ctx, rt.ID, application.UpdateRoomTypeRequest{UnitCount: intPtr(2)})
	assert.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.rooms.UpdateRoomType(ctx, rt.ID, application.UpdateRoomTypeRequest{UnitCount: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 0, env.available(t, rt.ID, "2030-06-10", "2030-06-12"))

	_, err = env.rooms.UpdateRoomType(ctx, rt.ID, application.UpdateRoomTypeRequest{UnitCount: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, 3, env.available(t, rt.ID, "2030-06-10", "2030-06-12"))
}

func TestRoomTypeService_DeleteBlockedByActiveBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rt, err := env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Twin", NightlyRate: 15000, UnitCount: 2})
	require.NoError(t, err)
	bk := env.mustBook(t, staff, bookingRequest("2030-06-10", "2030-06-12", room(rt.ID, 1)))

	err = env.rooms.DeleteRoomType(ctx, rt.ID)
	assert.True(t, domain.IsConflict(err), "got %v", err)

	_, err = env.bookings.DeleteBooking(ctx, bk.ID)
	require.NoError(t, err)
	require.NoError(t, env.rooms.DeleteRoomType(ctx, rt.ID))
	assert.Empty(t, env.ledger(t, rt.ID))

	// History keeps pointing at the removed room type.
	stored, err := env.bookings.GetBooking(ctx, staff, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, rt.ID, stored.Rooms[0].RoomID)
}

func TestAvailabilityService_ListAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	twin, err := env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Twin", NightlyRate: 15000, UnitCount: 2})
	require.NoError(t, err)
	suite, err := env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Suite", NightlyRate: 90000, UnitCount: 1})
	require.NoError(t, err)
	_, err = env.rooms.CreateRoomType(ctx, application.CreateRoomTypeRequest{Name: "Closed Wing", NightlyRate: 10000, UnitCount: 0})
	require.NoError(t, err)
	env.mustBook(t, staff, bookingRequest("2030-06-10", "2030-06-12", room(suite.ID, 1), room(twin.ID, 1)))

	stay, err := application.ParseStay("2030-06-11", "2030-06-13")
	require.NoError(t, err)

	rooms, err := env.availability.ListAvailable(ctx, nil, stay)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, twin.ID, rooms[0].ID)
	require.NotNil(t, rooms[0].AvailableUnits)
	assert.Equal(t, 1, *rooms[0].AvailableUnits)

	rooms, err = env.availability.ListAvailable(ctx, &suite.ID, stay)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	stay, err = application.ParseStay("2030-06-12T15:00:00+08:00", "2030-06-13")
	require.NoError(t, err)
	rooms, err = env.availability.ListAvailable(ctx, &suite.ID, stay)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, err = application.ParseStay("2030-06-13", "2030-06-11")
	assert.True(t, domain.IsValidation(err), "got %v", err)
}
