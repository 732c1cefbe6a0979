package application

// Action names an operation gated by role.
type Action string

const (
	ActionRoomsList               Action = "rooms.list"
	ActionRoomsAvailability       Action = "rooms.availability"
	ActionRoomsManage             Action = "rooms.manage"
	ActionBookingsCreate          Action = "bookings.create"
	ActionBookingsListOwn         Action = "bookings.list_own"
	ActionTimetableView           Action = "timetable.view"
	ActionTimetableManage         Action = "timetable.manage"
	ActionFacultyAvailabilityView Action = "faculty_availability.view"
	ActionFacultyAvailabilityAll  Action = "faculty_availability.view_all"
	ActionFacultyAvailabilityEdit Action = "faculty_availability.update"
	ActionStaffroomsView          Action = "staffrooms.view"
	ActionStaffroomsManage        Action = "staffrooms.manage"
	ActionNotificationsList       Action = "notifications.list"
	ActionNotificationsSend       Action = "notifications.send"
	ActionUsersMe                 Action = "users.me"
	ActionUsersManage             Action = "users.manage"
)

var (
	everyone     = []Role{RoleStudent, RoleFaculty, RoleAdmin}
	staff        = []Role{RoleFaculty, RoleAdmin}
	facultyOnly  = []Role{RoleFaculty}
	adminsOnly   = []Role{RoleAdmin}
	defaultRules = map[Action][]Role{
		ActionRoomsList:               everyone,
		ActionRoomsAvailability:       everyone,
		ActionBookingsCreate:          everyone,
		ActionBookingsListOwn:         everyone,
		ActionTimetableView:           everyone,
		ActionFacultyAvailabilityView: everyone,
		ActionStaffroomsView:          everyone,
		ActionNotificationsList:       everyone,
		ActionUsersMe:                 everyone,
		ActionFacultyAvailabilityEdit: facultyOnly,
		ActionNotificationsSend:       staff,
		ActionRoomsManage:             adminsOnly,
		ActionTimetableManage:         adminsOnly,
		ActionStaffroomsManage:        adminsOnly,
		ActionUsersManage:             adminsOnly,
		ActionFacultyAvailabilityAll:  adminsOnly,
	}
)

// Policy maps actions to the roles allowed to perform them.
type Policy struct {
	rules map[Action]map[Role]struct{}
}

// NewPolicy builds a policy from an action to roles table. A nil table yields the
// campus default.
func NewPolicy(rules map[Action][]Role) *Policy {
	if rules == nil {
		rules = defaultRules
	}
	p := &Policy{rules: make(map[Action]map[Role]struct{}, len(rules))}
	for action, roles := range rules {
		set := make(map[Role]struct{}, len(roles))
		for _, role := range roles {
			set[role] = struct{}{}
		}
		p.rules[action] = set
	}
	return p
}

// DefaultPolicy is the campus role table.
var DefaultPolicy = NewPolicy(nil)

// Authorize returns ErrUnauthenticated for an anonymous principal and ErrForbidden when
// the principal's role is not allowed to perform the action. Unknown actions are denied.
func (p *Policy) Authorize(principal Principal, action Action) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if _, ok := p.rules[action][principal.Role]; !ok {
		return ErrForbidden
	}
	return nil
}

// Allows reports whether the principal may perform the action.
func (p *Policy) Allows(principal Principal, action Action) bool {
	return p.Authorize(principal, action) == nil
}

func authorize(principal Principal, action Action) error {
	return DefaultPolicy.Authorize(principal, action)
}
