package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

var (
	adminPrincipal   = Principal{UserID: "admin-1", Role: RoleAdmin}
	facultyPrincipal = Principal{UserID: "faculty-1", Role: RoleFaculty}
	studentPrincipal = Principal{UserID: "student-1", Role: RoleStudent}
)

// referenceTime is a Tuesday.
var referenceTime = time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return referenceTime }

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func strPtr(value string) *string { return &value }

type userRepoStub struct {
	mu       sync.Mutex
	users    map[string]User
	err      error
	setCalls int
}

func newUserRepoStub(users ...User) *userRepoStub {
	r := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return User{}, r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return User{}, persistence.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return User{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *userRepoStub) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return User{}, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, persistence.ErrNotFound
}

func (r *userRepoStub) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []User
	for _, user := range r.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepoStub) SetStaffroom(ctx context.Context, userID string, staffroomID *string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return persistence.ErrNotFound
	}
	user.StaffroomID = staffroomID
	user.UpdatedAt = updatedAt
	r.users[userID] = user
	r.setCalls++
	return nil
}

type roomRepoStub struct {
	mu        sync.Mutex
	rooms     map[string]Room
	deleteErr error
	listType  string
}

func newRoomRepoStub(rooms ...Room) *roomRepoStub {
	r := &roomRepoStub{rooms: make(map[string]Room)}
	for _, room := range rooms {
		r.rooms[room.ID] = room
	}
	return r
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.Name == room.Name {
			return Room{}, persistence.ErrDuplicate
		}
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.rooms, id)
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context, roomType string) ([]Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listType = roomType
	var out []Room
	for _, room := range r.rooms {
		if roomType != "" && room.Type != roomType {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

type timetableRepoStub struct {
	mu      sync.Mutex
	entries map[string]TimetableEntry
}

func newTimetableRepoStub(entries ...TimetableEntry) *timetableRepoStub {
	r := &timetableRepoStub{entries: make(map[string]TimetableEntry)}
	for _, entry := range entries {
		r.entries[entry.ID] = entry
	}
	return r
}

func (r *timetableRepoStub) CreateEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.Branch == entry.Branch && existing.Semester == entry.Semester && existing.Section == entry.Section &&
			existing.DayOfWeek == entry.DayOfWeek && existing.PeriodIndex == entry.PeriodIndex {
			return TimetableEntry{}, persistence.ErrDuplicate
		}
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *timetableRepoStub) GetEntry(ctx context.Context, id string) (TimetableEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return TimetableEntry{}, persistence.ErrNotFound
	}
	return entry, nil
}

func (r *timetableRepoStub) ListBySection(ctx context.Context, branch string, semester int, section string) ([]TimetableEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TimetableEntry
	for _, entry := range r.entries {
		if entry.Branch == branch && entry.Semester == semester && entry.Section == section {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *timetableRepoStub) ListByRoomAndDay(ctx context.Context, roomID, dayOfWeek string) ([]TimetableEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TimetableEntry
	for _, entry := range r.entries {
		if entry.RoomID == roomID && entry.DayOfWeek == dayOfWeek {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *timetableRepoStub) DeleteEntry(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

type bookingRepoStub struct {
	mu       sync.Mutex
	bookings []Booking
	// forceOverlap makes InsertIfNoOverlap report a lost race once.
	forceOverlap bool
	inserts      int
}

func (r *bookingRepoStub) InsertIfNoOverlap(ctx context.Context, booking Booking) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.forceOverlap {
		r.forceOverlap = false
		return Booking{}, persistence.ErrOverlap
	}
	for _, existing := range r.bookings {
		if existing.RoomID == booking.RoomID && activeStatus(existing.Status) &&
			existing.Start.Before(booking.End) && booking.Start.Before(existing.End) {
			return Booking{}, persistence.ErrOverlap
		}
	}
	r.bookings = append(r.bookings, booking)
	return booking, nil
}

func (r *bookingRepoStub) ListActiveOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, existing := range r.bookings {
		if existing.RoomID == roomID && activeStatus(existing.Status) &&
			existing.Start.Before(end) && start.Before(existing.End) {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (r *bookingRepoStub) ListByUser(ctx context.Context, userID string) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, existing := range r.bookings {
		if existing.UserID == userID {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (r *bookingRepoStub) CountActiveOverlapping(ctx context.Context, start, end time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, existing := range r.bookings {
		if activeStatus(existing.Status) && existing.Start.Before(end) && start.Before(existing.End) {
			count++
		}
	}
	return count, nil
}

func (r *bookingRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func activeStatus(status string) bool {
	return status == BookingStatusApproved || status == BookingStatusPending
}

type availabilityRepoStub struct {
	mu      sync.Mutex
	records map[string]FacultyAvailability
	filters []AvailabilityFilter
}

func newAvailabilityRepoStub(records ...FacultyAvailability) *availabilityRepoStub {
	r := &availabilityRepoStub{records: make(map[string]FacultyAvailability)}
	for _, record := range records {
		r.records[record.FacultyID+"|"+record.Date] = record
	}
	return r
}

func (r *availabilityRepoStub) UpsertAvailability(ctx context.Context, record FacultyAvailability) (FacultyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := record.FacultyID + "|" + record.Date
	if existing, ok := r.records[key]; ok {
		existing.Status = record.Status
		existing.UpdatedAt = record.UpdatedAt
		r.records[key] = existing
		return existing, nil
	}
	r.records[key] = record
	return record, nil
}

func (r *availabilityRepoStub) GetAvailability(ctx context.Context, facultyID, date string) (FacultyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[facultyID+"|"+date]
	if !ok {
		return FacultyAvailability{}, persistence.ErrNotFound
	}
	return record, nil
}

func (r *availabilityRepoStub) ListAvailability(ctx context.Context, filter AvailabilityFilter) ([]FacultyAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
	var out []FacultyAvailability
	for _, record := range r.records {
		if filter.FacultyID != "" && record.FacultyID != filter.FacultyID {
			continue
		}
		if filter.From != "" && record.Date < filter.From {
			continue
		}
		if filter.To != "" && record.Date > filter.To {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

type staffroomRepoStub struct {
	mu         sync.Mutex
	staffrooms map[string]Staffroom
	users      *userRepoStub
}

func newStaffroomRepoStub(users *userRepoStub, staffrooms ...Staffroom) *staffroomRepoStub {
	r := &staffroomRepoStub{staffrooms: make(map[string]Staffroom), users: users}
	for _, room := range staffrooms {
		r.staffrooms[room.ID] = room
	}
	return r
}

func (r *staffroomRepoStub) CreateStaffroom(ctx context.Context, staffroom Staffroom, facultyIDs []string) (Staffroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staffrooms[staffroom.ID] = staffroom
	for _, id := range facultyIDs {
		if err := r.users.SetStaffroom(ctx, id, strPtr(staffroom.ID), staffroom.CreatedAt); err != nil {
			return Staffroom{}, err
		}
	}
	return staffroom, nil
}

func (r *staffroomRepoStub) GetStaffroom(ctx context.Context, id string) (Staffroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.staffrooms[id]
	if !ok {
		return Staffroom{}, persistence.ErrNotFound
	}
	return room, nil
}

func (r *staffroomRepoStub) ListStaffrooms(ctx context.Context) ([]Staffroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Staffroom, 0, len(r.staffrooms))
	for _, room := range r.staffrooms {
		out = append(out, room)
	}
	return out, nil
}

type notificationRepoStub struct {
	mu            sync.Mutex
	notifications []Notification
	audience      []string
	limit         int
}

func (r *notificationRepoStub) CreateNotification(ctx context.Context, notification Notification) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notification)
	return notification, nil
}

func (r *notificationRepoStub) ListNotifications(ctx context.Context, audience []string, limit int) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audience = audience
	r.limit = limit
	var out []Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.notifications[i]
		for _, member := range audience {
			if VisibleTo(n, member, Role(member)) {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

type notifierStub struct {
	mu     sync.Mutex
	inputs []NotificationInput
	err    error
	// onNotify runs before the notification is recorded.
	onNotify func(NotificationInput)
}

func (n *notifierStub) Notify(ctx context.Context, input NotificationInput) (Notification, error) {
	if n.onNotify != nil {
		n.onNotify(input)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return Notification{}, n.err
	}
	n.inputs = append(n.inputs, input)
	return Notification{ID: fmt.Sprintf("notification-%d", len(n.inputs)), Title: input.Title, Body: input.Body}, nil
}

func (n *notifierStub) sent() []NotificationInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NotificationInput, len(n.inputs))
	copy(out, n.inputs)
	return out
}

type publisherStub struct {
	published []Notification
	err       error
}

func (p *publisherStub) Publish(ctx context.Context, notification Notification) error {
	p.published = append(p.published, notification)
	return p.err
}

type codeStoreStub struct {
	mu    sync.Mutex
	codes map[string]string
	ttl   time.Duration
}

func newCodeStoreStub() *codeStoreStub {
	return &codeStoreStub{codes: make(map[string]string)}
}

func (c *codeStoreStub) SaveCode(ctx context.Context, email, hash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = hash
	c.ttl = ttl
	return nil
}

func (c *codeStoreStub) LoadCode(ctx context.Context, email string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hash, ok := c.codes[email]
	return hash, ok, nil
}

func (c *codeStoreStub) DeleteCode(ctx context.Context, email string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.codes[email]
	delete(c.codes, email)
	return ok, nil
}

type codeSenderStub struct {
	codes map[string]string
}

func (s *codeSenderStub) SendCode(ctx context.Context, email, code string) error {
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}
