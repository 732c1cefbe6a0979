package main

import (
	"context"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context, filter application.UserFilter) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx, persistence.UserFilter{
		Role:        string(filter.Role),
		StaffroomID: filter.StaffroomID,
	})
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) SetStaffroom(ctx context.Context, userID string, staffroomID *string, updatedAt time.Time) error {
	return a.repo.SetStaffroom(ctx, userID, staffroomID, updatedAt)
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context, roomType string) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx, roomType)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type timetableRepositoryAdapter struct {
	repo persistence.TimetableRepository
}

func newTimetableRepositoryAdapter(repo persistence.TimetableRepository) *timetableRepositoryAdapter {
	return &timetableRepositoryAdapter{repo: repo}
}

func (a *timetableRepositoryAdapter) CreateEntry(ctx context.Context, entry application.TimetableEntry) (application.TimetableEntry, error) {
	if err := a.repo.CreateEntry(ctx, persistence.TimetableEntry(entry)); err != nil {
		return application.TimetableEntry{}, err
	}
	stored, err := a.repo.GetEntry(ctx, entry.ID)
	if err != nil {
		return application.TimetableEntry{}, err
	}
	return application.TimetableEntry(stored), nil
}

func (a *timetableRepositoryAdapter) GetEntry(ctx context.Context, id string) (application.TimetableEntry, error) {
	stored, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return application.TimetableEntry{}, err
	}
	return application.TimetableEntry(stored), nil
}

func (a *timetableRepositoryAdapter) ListBySection(ctx context.Context, branch string, semester int, section string) ([]application.TimetableEntry, error) {
	models, err := a.repo.ListBySection(ctx, branch, semester, section)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

func (a *timetableRepositoryAdapter) ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]application.TimetableEntry, error) {
	models, err := a.repo.ListByRoomAndDay(ctx, roomID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	return toApplicationEntries(models), nil
}

func (a *timetableRepositoryAdapter) DeleteEntry(ctx context.Context, id string) error {
	return a.repo.DeleteEntry(ctx, id)
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) InsertIfNoOverlap(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.InsertIfNoOverlap(ctx, persistence.Booking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return application.Booking(stored), nil
}

func (a *bookingRepositoryAdapter) ListActiveOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]application.Booking, error) {
	models, err := a.repo.ListActiveOverlapping(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

func (a *bookingRepositoryAdapter) ListByUser(ctx context.Context, userID string) ([]application.Booking, error) {
	models, err := a.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

func (a *bookingRepositoryAdapter) CountActiveOverlapping(ctx context.Context, start, end time.Time) (int, error) {
	return a.repo.CountActiveOverlapping(ctx, start, end)
}

type availabilityRepositoryAdapter struct {
	repo persistence.FacultyAvailabilityRepository
}

func newAvailabilityRepositoryAdapter(repo persistence.FacultyAvailabilityRepository) *availabilityRepositoryAdapter {
	return &availabilityRepositoryAdapter{repo: repo}
}

func (a *availabilityRepositoryAdapter) UpsertAvailability(ctx context.Context, availability application.FacultyAvailability) (application.FacultyAvailability, error) {
	stored, err := a.repo.UpsertAvailability(ctx, persistence.FacultyAvailability(availability))
	if err != nil {
		return application.FacultyAvailability{}, err
	}
	return application.FacultyAvailability(stored), nil
}

func (a *availabilityRepositoryAdapter) GetAvailability(ctx context.Context, facultyID, date string) (application.FacultyAvailability, error) {
	stored, err := a.repo.GetAvailability(ctx, facultyID, date)
	if err != nil {
		return application.FacultyAvailability{}, err
	}
	return application.FacultyAvailability(stored), nil
}

func (a *availabilityRepositoryAdapter) ListAvailability(ctx context.Context, filter application.AvailabilityFilter) ([]application.FacultyAvailability, error) {
	models, err := a.repo.ListAvailability(ctx, persistence.FacultyAvailabilityFilter(filter))
	if err != nil {
		return nil, err
	}
	records := make([]application.FacultyAvailability, 0, len(models))
	for _, model := range models {
		records = append(records, application.FacultyAvailability(model))
	}
	return records, nil
}

type staffroomRepositoryAdapter struct {
	repo persistence.StaffroomRepository
}

func newStaffroomRepositoryAdapter(repo persistence.StaffroomRepository) *staffroomRepositoryAdapter {
	return &staffroomRepositoryAdapter{repo: repo}
}

func (a *staffroomRepositoryAdapter) CreateStaffroom(ctx context.Context, staffroom application.Staffroom, facultyIDs []string) (application.Staffroom, error) {
	if err := a.repo.CreateStaffroom(ctx, persistence.Staffroom(staffroom), facultyIDs); err != nil {
		return application.Staffroom{}, err
	}
	stored, err := a.repo.GetStaffroom(ctx, staffroom.ID)
	if err != nil {
		return application.Staffroom{}, err
	}
	return application.Staffroom(stored), nil
}

func (a *staffroomRepositoryAdapter) GetStaffroom(ctx context.Context, id string) (application.Staffroom, error) {
	stored, err := a.repo.GetStaffroom(ctx, id)
	if err != nil {
		return application.Staffroom{}, err
	}
	return application.Staffroom(stored), nil
}

func (a *staffroomRepositoryAdapter) ListStaffrooms(ctx context.Context) ([]application.Staffroom, error) {
	models, err := a.repo.ListStaffrooms(ctx)
	if err != nil {
		return nil, err
	}
	staffrooms := make([]application.Staffroom, 0, len(models))
	for _, model := range models {
		staffrooms = append(staffrooms, application.Staffroom(model))
	}
	return staffrooms, nil
}

type notificationRepositoryAdapter struct {
	repo persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(repo persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

// CreateNotification stores the record as given; the store keeps no derived columns.
func (a *notificationRepositoryAdapter) CreateNotification(ctx context.Context, notification application.Notification) (application.Notification, error) {
	if err := a.repo.CreateNotification(ctx, persistence.Notification(notification)); err != nil {
		return application.Notification{}, err
	}
	return notification, nil
}

func (a *notificationRepositoryAdapter) ListNotifications(ctx context.Context, audience []string, limit int) ([]application.Notification, error) {
	models, err := a.repo.ListNotifications(ctx, audience, limit)
	if err != nil {
		return nil, err
	}
	notifications := make([]application.Notification, 0, len(models))
	for _, model := range models {
		notifications = append(notifications, application.Notification(model))
	}
	return notifications, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		Name:        model.Name,
		Role:        application.Role(model.Role),
		StaffroomID: model.StaffroomID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		StaffroomID: user.StaffroomID,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room(model)
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room(room)
}

func toApplicationEntries(models []persistence.TimetableEntry) []application.TimetableEntry {
	entries := make([]application.TimetableEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, application.TimetableEntry(model))
	}
	return entries
}

func toApplicationBookings(models []persistence.Booking) []application.Booking {
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, application.Booking(model))
	}
	return bookings
}
