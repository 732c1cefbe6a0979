package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newStaffroomFixture() (*StaffroomService, *userRepoStub, *availabilityRepoStub) {
	users := newUserRepoStub(
		User{ID: "f1", Name: "Zara", Email: "zara@example.edu", Role: RoleFaculty, StaffroomID: strPtr("sr-1")},
		User{ID: "f2", Name: "Arun", Email: "arun@example.edu", Role: RoleFaculty, StaffroomID: strPtr("sr-1")},
		User{ID: "f3", Name: "Meera", Email: "meera@example.edu", Role: RoleFaculty, StaffroomID: strPtr("sr-2")},
		User{ID: "f4", Name: "Kiran", Email: "kiran@example.edu", Role: RoleFaculty},
		User{ID: "f5", Name: "Dev", Email: "dev@example.edu", Role: RoleFaculty, StaffroomID: strPtr("sr-gone")},
		User{ID: "s1", Name: "Sam", Email: "sam@example.edu", Role: RoleStudent},
	)
	staffrooms := newStaffroomRepoStub(users,
		Staffroom{ID: "sr-1", Name: "CSE Staffroom", Location: strPtr("Block A")},
		Staffroom{ID: "sr-2", Name: "ece staffroom"},
	)
	availability := newAvailabilityRepoStub(
		FacultyAvailability{FacultyID: "f1", Date: "2024-01-02", Status: AvailabilityAbsent},
		FacultyAvailability{FacultyID: "f2", Date: "2024-01-02", Status: AvailabilityPresent},
		FacultyAvailability{FacultyID: "f3", Date: "2024-01-02", Status: AvailabilityNotAvailable},
		FacultyAvailability{FacultyID: "f2", Date: "2024-01-03", Status: AvailabilityAbsent},
	)
	svc := NewStaffroomService(staffrooms, users, availability, time.UTC, sequentialIDs("sr-new"), fixedNow)
	return svc, users, availability
}

func TestStaffroomService_ListStaffroomPresence(t *testing.T) {
	svc, _, availability := newStaffroomFixture()

	groups, err := svc.ListStaffroomPresence(context.Background(), studentPrincipal, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(availability.filters) != 1 || availability.filters[0].From != "2024-01-02" {
		t.Fatalf("expected today's date to be used, got %+v", availability.filters)
	}
	if len(groups) != 3 {
		t.Fatalf("expected two staffrooms and the unassigned group, got %d", len(groups))
	}

	cse := groups[0]
	if cse.ID != "sr-1" || cse.Location != "Block A" {
		t.Fatalf("unexpected first group %+v", cse)
	}
	if cse.Counts != (PresenceCounts{Total: 2, Present: 1, Absent: 1}) {
		t.Fatalf("unexpected counts %+v", cse.Counts)
	}
	if cse.Faculty[0].Name != "Arun" || cse.Faculty[1].Status != AvailabilityAbsent {
		t.Fatalf("unexpected members %+v", cse.Faculty)
	}

	ece := groups[1]
	if ece.ID != "sr-2" || ece.Location != unspecifiedLocation || ece.Counts.NotAvailable != 1 {
		t.Fatalf("unexpected second group %+v", ece)
	}

	unassigned := groups[2]
	if unassigned.ID != "" || unassigned.Name != unassignedStaffroomName {
		t.Fatalf("expected trailing unassigned group, got %+v", unassigned)
	}
	if unassigned.Counts.Total != 2 || unassigned.Counts.NotUpdated != 2 {
		t.Fatalf("unexpected unassigned counts %+v", unassigned.Counts)
	}

	for _, group := range groups {
		absent := 0
		for _, member := range group.Faculty {
			if member.Status == AvailabilityAbsent {
				absent++
			}
		}
		if absent != group.Counts.Absent {
			t.Fatalf("%s: absent count %d does not match members %d", group.Name, group.Counts.Absent, absent)
		}
		sum := group.Counts.Present + group.Counts.Absent + group.Counts.NotAvailable + group.Counts.NotUpdated
		if sum != group.Counts.Total || sum != len(group.Faculty) {
			t.Fatalf("%s: counts do not add up: %+v", group.Name, group.Counts)
		}
	}
}

func TestStaffroomService_ListStaffroomPresenceValidatesDate(t *testing.T) {
	svc, _, _ := newStaffroomFixture()
	_, err := svc.ListStaffroomPresence(context.Background(), studentPrincipal, "2024-13-01")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestStaffroomService_CreateStaffroom(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns listed faculty", func(t *testing.T) {
		svc, users, _ := newStaffroomFixture()
		room, err := svc.CreateStaffroom(ctx, CreateStaffroomParams{
			Principal: adminPrincipal,
			Input:     StaffroomInput{Name: " Mech ", FacultyIDs: []string{"f4", "f4"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if room.Name != "Mech" {
			t.Fatalf("unexpected staffroom %+v", room)
		}
		if got := users.users["f4"].StaffroomID; got == nil || *got != room.ID {
			t.Fatalf("expected f4 to be assigned, got %v", got)
		}
	})

	t.Run("rejects already assigned faculty", func(t *testing.T) {
		svc, _, _ := newStaffroomFixture()
		_, err := svc.CreateStaffroom(ctx, CreateStaffroomParams{
			Principal: adminPrincipal,
			Input:     StaffroomInput{Name: "Mech", FacultyIDs: []string{"f1"}},
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("rejects non-faculty and unknown members", func(t *testing.T) {
		svc, _, _ := newStaffroomFixture()
		_, err := svc.CreateStaffroom(ctx, CreateStaffroomParams{
			Principal: adminPrincipal,
			Input:     StaffroomInput{Name: "Mech", FacultyIDs: []string{"s1"}},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}

		_, err = svc.CreateStaffroom(ctx, CreateStaffroomParams{
			Principal: adminPrincipal,
			Input:     StaffroomInput{Name: "Mech", FacultyIDs: []string{"nobody"}},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("admin only", func(t *testing.T) {
		svc, _, _ := newStaffroomFixture()
		_, err := svc.CreateStaffroom(ctx, CreateStaffroomParams{Principal: facultyPrincipal, Input: StaffroomInput{Name: "Mech"}})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestStaffroomService_Membership(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newStaffroomFixture()

	user, err := svc.AssignFaculty(ctx, StaffroomMembershipParams{Principal: adminPrincipal, StaffroomID: "sr-2", FacultyID: "f4"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if user.StaffroomID == nil || *user.StaffroomID != "sr-2" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := svc.AssignFaculty(ctx, StaffroomMembershipParams{Principal: adminPrincipal, StaffroomID: "sr-1", FacultyID: "f4"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on reassignment, got %v", err)
	}
	if _, err := svc.AssignFaculty(ctx, StaffroomMembershipParams{Principal: adminPrincipal, StaffroomID: "missing", FacultyID: "f4"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown staffroom, got %v", err)
	}

	if err := svc.RemoveFaculty(ctx, StaffroomMembershipParams{Principal: adminPrincipal, StaffroomID: "sr-1", FacultyID: "f4"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-member, got %v", err)
	}
	if err := svc.RemoveFaculty(ctx, StaffroomMembershipParams{Principal: adminPrincipal, StaffroomID: "sr-2", FacultyID: "f4"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if users.users["f4"].StaffroomID != nil {
		t.Fatal("expected f4 to be unassigned")
	}
}
