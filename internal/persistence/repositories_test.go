package persistence_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	t.Run("email lookup is case insensitive and unique", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)

		user := testfixtures.NewUser(testfixtures.WithRole("faculty"))
		if err := h.Users.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		fetched, err := h.Users.GetUserByEmail(ctx, "  "+strings.ToUpper(user.Email)+" ")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if fetched.ID != user.ID || fetched.Role != "faculty" {
			t.Fatalf("unexpected user: %#v", fetched)
		}

		dup := testfixtures.NewUser()
		dup.Email = strings.ToUpper(user.Email)
		if err := h.Users.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewSQLiteHarness(t)
		user := testfixtures.NewUser(testfixtures.WithRole("dean"))
		if err := h.Users.CreateUser(context.Background(), user); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("set staffroom on a missing user", func(t *testing.T) {
		t.Parallel()

		h := testfixtures.NewSQLiteHarness(t)
		err := h.Users.SetStaffroom(context.Background(), "ghost", nil, testfixtures.ReferenceTime())
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	campus := testfixtures.SeedCampus(t, h)

	rooms, err := h.Rooms.ListRooms(ctx, "")
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected two rooms, got %d", len(rooms))
	}

	dup := testfixtures.NewRoom()
	dup.Name = campus.Classroom.Name
	if err := h.Rooms.CreateRoom(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated name, got %v", err)
	}

	lab := campus.Lab
	lab.Capacity = 24
	lab.UpdatedAt = lab.UpdatedAt.Add(time.Hour)
	if err := h.Rooms.UpdateRoom(ctx, lab); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	fetched, err := h.Rooms.GetRoom(ctx, lab.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if fetched.Capacity != 24 || fetched.Type != "lab" {
		t.Fatalf("unexpected room: %#v", fetched)
	}

	if err := h.Rooms.DeleteRoom(ctx, lab.ID); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := h.Rooms.GetRoom(ctx, lab.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTimetableRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	campus := testfixtures.SeedCampus(t, h)

	section, err := h.Timetable.ListBySection(ctx, "CSE", 3, "A")
	if err != nil {
		t.Fatalf("ListBySection failed: %v", err)
	}
	if len(section) != 2 {
		t.Fatalf("expected two periods, got %d", len(section))
	}

	early := testfixtures.NewTimetableEntry(campus.Faculty[1].ID, campus.Lab.ID, testfixtures.WithPeriod(4, "07:05", "08:00"))
	if err := h.Timetable.CreateEntry(ctx, early); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	section, err = h.Timetable.ListBySection(ctx, early.Branch, early.Semester, early.Section)
	if err != nil {
		t.Fatalf("ListBySection failed: %v", err)
	}
	var found bool
	for _, entry := range section {
		if entry.ID != early.ID {
			continue
		}
		found = true
		if entry.StartTime != "07:05" || entry.EndTime != "08:00" {
			t.Fatalf("times changed in storage: %q-%q", entry.StartTime, entry.EndTime)
		}
	}
	if !found {
		t.Fatalf("entry %s missing from section lookup", early.ID)
	}

	clash := testfixtures.NewTimetableEntry(campus.Faculty[0].ID, campus.Lab.ID)
	if err := h.Timetable.CreateEntry(ctx, clash); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a second period 1, got %v", err)
	}

	sunday := testfixtures.NewTimetableEntry(campus.Faculty[0].ID, campus.Lab.ID, testfixtures.WithDay("Sun"))
	if err := h.Timetable.CreateEntry(ctx, sunday); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for Sunday, got %v", err)
	}

	if err := h.Timetable.DeleteEntry(ctx, campus.Periods[0].ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if _, err := h.Timetable.GetEntry(ctx, campus.Periods[0].ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingRepository(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)

	t.Run("overlap is rejected and touching is allowed", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		campus := testfixtures.SeedCampus(t, h)
		room := campus.Classroom.ID

		first := testfixtures.NewBooking(campus.Student.ID, room, base, base.Add(time.Hour))
		if err := h.Bookings.InsertIfNoOverlap(ctx, first); err != nil {
			t.Fatalf("InsertIfNoOverlap failed: %v", err)
		}

		overlapping := testfixtures.NewBooking(campus.Admin.ID, room, base.Add(30*time.Minute), base.Add(90*time.Minute))
		if err := h.Bookings.InsertIfNoOverlap(ctx, overlapping); !errors.Is(err, persistence.ErrOverlap) {
			t.Fatalf("expected ErrOverlap, got %v", err)
		}

		touching := testfixtures.NewBooking(campus.Admin.ID, room, base.Add(time.Hour), base.Add(2*time.Hour))
		if err := h.Bookings.InsertIfNoOverlap(ctx, touching); err != nil {
			t.Fatalf("touching booking rejected: %v", err)
		}

		otherRoom := testfixtures.NewBooking(campus.Admin.ID, campus.Lab.ID, base, base.Add(time.Hour))
		if err := h.Bookings.InsertIfNoOverlap(ctx, otherRoom); err != nil {
			t.Fatalf("booking in another room rejected: %v", err)
		}

		active, err := h.Bookings.ListActiveOverlapping(ctx, room, base, base.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("ListActiveOverlapping failed: %v", err)
		}
		if len(active) != 2 || active[0].ID != first.ID {
			t.Fatalf("unexpected active bookings: %#v", active)
		}

		count, err := h.Bookings.CountActiveOverlapping(ctx, base, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("CountActiveOverlapping failed: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected two bookings across rooms, got %d", count)
		}
	})

	t.Run("rejected bookings do not hold the room", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		campus := testfixtures.SeedCampus(t, h)

		rejected := testfixtures.NewBooking(campus.Student.ID, campus.Lab.ID, base, base.Add(time.Hour))
		rejected.Status = "rejected"
		if err := h.Bookings.InsertIfNoOverlap(ctx, rejected); err != nil {
			t.Fatalf("InsertIfNoOverlap failed: %v", err)
		}

		replacement := testfixtures.NewBooking(campus.Admin.ID, campus.Lab.ID, base, base.Add(time.Hour))
		if err := h.Bookings.InsertIfNoOverlap(ctx, replacement); err != nil {
			t.Fatalf("booking over a rejected one failed: %v", err)
		}
	})

	t.Run("concurrent writers admit exactly one", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := testfixtures.NewSQLiteHarness(t)
		campus := testfixtures.SeedCampus(t, h)

		const writers = 4
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
		)
		for i := 0; i < writers; i++ {
			booking := testfixtures.NewBooking(campus.Student.ID, campus.Classroom.ID, base, base.Add(time.Hour))
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := h.Bookings.InsertIfNoOverlap(ctx, booking)
				switch {
				case err == nil:
					mu.Lock()
					admitted++
					mu.Unlock()
				case errors.Is(err, persistence.ErrOverlap):
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if admitted != 1 {
			t.Fatalf("expected exactly one admitted booking, got %d", admitted)
		}
	})
}

func TestFacultyAvailabilityRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	campus := testfixtures.SeedCampus(t, h)
	faculty := campus.Faculty[0].ID

	first, err := h.Availability.UpsertAvailability(ctx, persistence.FacultyAvailability{
		ID: "fa-1", FacultyID: faculty, Date: "2024-01-02", Status: "absent",
		CreatedAt: testfixtures.ReferenceTime(), UpdatedAt: testfixtures.ReferenceTime(),
	})
	if err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}

	later := testfixtures.ReferenceTime().Add(time.Hour)
	second, err := h.Availability.UpsertAvailability(ctx, persistence.FacultyAvailability{
		ID: "fa-2", FacultyID: faculty, Date: "2024-01-02", Status: "present",
		CreatedAt: later, UpdatedAt: later,
	})
	if err != nil {
		t.Fatalf("second UpsertAvailability failed: %v", err)
	}
	if second.ID != first.ID || second.Status != "present" || !second.CreatedAt.Equal(first.CreatedAt) || !second.UpdatedAt.Equal(later) {
		t.Fatalf("upsert did not keep identity: first=%#v second=%#v", first, second)
	}

	if _, err := h.Availability.UpsertAvailability(ctx, persistence.FacultyAvailability{
		ID: "fa-3", FacultyID: faculty, Date: "2024-01-03", Status: "not-available",
		CreatedAt: later, UpdatedAt: later,
	}); err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}

	records, err := h.Availability.ListAvailability(ctx, persistence.FacultyAvailabilityFilter{FacultyID: faculty, From: "2024-01-03"})
	if err != nil {
		t.Fatalf("ListAvailability failed: %v", err)
	}
	if len(records) != 1 || records[0].Date != "2024-01-03" {
		t.Fatalf("unexpected records: %#v", records)
	}

	if _, err := h.Availability.GetAvailability(ctx, campus.Unassigned.ID, "2024-01-02"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaffroomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	campus := testfixtures.SeedCampus(t, h)

	// Faculty[0] already belongs to the seeded staffroom, so the whole create rolls back.
	conflicted := testfixtures.NewStaffroom("Physics")
	err := h.Staffrooms.CreateStaffroom(ctx, conflicted, []string{campus.Unassigned.ID, campus.Faculty[0].ID})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := h.Staffrooms.GetStaffroom(ctx, conflicted.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("staffroom survived rollback: %v", err)
	}
	unassigned, err := h.Users.GetUser(ctx, campus.Unassigned.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if unassigned.StaffroomID != nil {
		t.Fatal("assignment survived rollback")
	}

	physics := testfixtures.NewStaffroom("Physics")
	if err := h.Staffrooms.CreateStaffroom(ctx, physics, []string{campus.Unassigned.ID}); err != nil {
		t.Fatalf("CreateStaffroom failed: %v", err)
	}
	staffrooms, err := h.Staffrooms.ListStaffrooms(ctx)
	if err != nil {
		t.Fatalf("ListStaffrooms failed: %v", err)
	}
	if len(staffrooms) != 2 || staffrooms[0].Name != "Physics" {
		t.Fatalf("unexpected staffrooms: %#v", staffrooms)
	}
}

func TestNotificationRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	base := testfixtures.ReferenceTime()

	notifications := []persistence.Notification{
		{ID: "n-1", Title: "Campus closed", Body: "Holiday", Type: "info", CreatedAt: base},
		{ID: "n-2", Recipients: []string{"faculty"}, Title: "Staff meeting", Body: "3pm", Type: "info", CreatedAt: base.Add(time.Minute)},
		{ID: "n-3", Recipients: []string{"student-9"}, Title: "Booking", Body: "Approved", Type: "booking", Meta: map[string]any{"booking_id": "b-1"}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, n := range notifications {
		if err := h.Notifications.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification %s failed: %v", n.ID, err)
		}
	}

	tests := []struct {
		name     string
		audience []string
		limit    int
		want     []string
	}{
		{name: "broadcast only", audience: nil, limit: 10, want: []string{"n-1"}},
		{name: "role audience", audience: []string{"faculty-1", "faculty"}, limit: 10, want: []string{"n-2", "n-1"}},
		{name: "direct recipient", audience: []string{"student-9", "student"}, limit: 10, want: []string{"n-3", "n-1"}},
		{name: "limit keeps newest", audience: []string{"student-9", "faculty"}, limit: 2, want: []string{"n-3", "n-2"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := h.Notifications.ListNotifications(ctx, tc.audience, tc.limit)
			if err != nil {
				t.Fatalf("ListNotifications failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d notifications, want %v", len(got), tc.want)
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	stored, err := h.Notifications.ListNotifications(ctx, []string{"student-9"}, 1)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if stored[0].Meta["booking_id"] != "b-1" || len(stored[0].Recipients) != 1 {
		t.Fatalf("round trip lost fields: %#v", stored[0])
	}
}
