package application

import (
	"errors"
	"testing"
)

func TestPolicyAuthorize(t *testing.T) {
	t.Parallel()

	student := Principal{UserID: "s1", Role: RoleStudent}
	faculty := Principal{UserID: "f1", Role: RoleFaculty}
	admin := Principal{UserID: "a1", Role: RoleAdmin}

	tests := []struct {
		name      string
		principal Principal
		action    Action
		want      error
	}{
		{"student books rooms", student, ActionBookingsCreate, nil},
		{"student cannot manage rooms", student, ActionRoomsManage, ErrForbidden},
		{"student cannot send notifications", student, ActionNotificationsSend, ErrForbidden},
		{"faculty sends notifications", faculty, ActionNotificationsSend, nil},
		{"faculty updates availability", faculty, ActionFacultyAvailabilityEdit, nil},
		{"admin cannot update availability", admin, ActionFacultyAvailabilityEdit, ErrForbidden},
		{"admin manages timetable", admin, ActionTimetableManage, nil},
		{"faculty cannot manage timetable", faculty, ActionTimetableManage, ErrForbidden},
		{"admin lists all availability", admin, ActionFacultyAvailabilityAll, nil},
		{"unknown action denied", admin, Action("rooms.explode"), ErrForbidden},
		{"unknown role denied", Principal{UserID: "x", Role: "janitor"}, ActionRoomsList, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultPolicy.Authorize(tt.principal, tt.action)
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Fatalf("Authorize() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPolicyDeniesAnonymousEverything(t *testing.T) {
	t.Parallel()

	for action := range defaultRules {
		if err := DefaultPolicy.Authorize(Principal{}, action); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", action, err)
		}
		if DefaultPolicy.Allows(Principal{UserID: "u1"}, action) {
			t.Fatalf("%s: principal without role must be denied", action)
		}
	}
}

func TestNewPolicyCustomRules(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(map[Action][]Role{ActionRoomsManage: {RoleFaculty}})
	if !policy.Allows(Principal{UserID: "f1", Role: RoleFaculty}, ActionRoomsManage) {
		t.Fatal("expected custom rule to allow faculty")
	}
	if policy.Allows(Principal{UserID: "a1", Role: RoleAdmin}, ActionRoomsManage) {
		t.Fatal("expected custom rule to deny admin")
	}
}
