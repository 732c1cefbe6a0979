package application

import (
	"context"
	"testing"
	"time"
)

func TestDigestService_SendDailyDigest(t *testing.T) {
	bookings := &bookingRepoStub{bookings: []Booking{
		{ID: "b1", RoomID: "r1", Status: BookingStatusApproved, Start: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
		{ID: "b2", RoomID: "r2", Status: BookingStatusPending, Start: time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)},
		{ID: "b3", RoomID: "r1", Status: BookingStatusRejected, Start: time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)},
		{ID: "b4", RoomID: "r1", Status: BookingStatusApproved, Start: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)},
	}}
	availability := newAvailabilityRepoStub(
		FacultyAvailability{FacultyID: "f1", Date: "2024-01-02", Status: AvailabilityAbsent},
		FacultyAvailability{FacultyID: "f2", Date: "2024-01-02", Status: AvailabilityPresent},
		FacultyAvailability{FacultyID: "f3", Date: "2024-01-01", Status: AvailabilityAbsent},
	)
	notifier := &notifierStub{}
	svc := NewDigestService(bookings, availability, notifier, time.UTC, fixedNow, nil)

	digest, err := svc.SendDailyDigest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if digest.Date != "2024-01-02" || digest.Bookings != 2 || digest.AbsentFaculty != 1 {
		t.Fatalf("unexpected digest %+v", digest)
	}
	if digest.NotificationID == "" {
		t.Fatal("expected notification id")
	}

	sent := notifier.sent()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	if sent[0].Body != "2024-01-02: 2 bookings, 1 faculty absent" || sent[0].Recipients[0] != "admin" {
		t.Fatalf("unexpected notification %+v", sent[0])
	}
}

func TestDigestService_UsesCampusTimezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on Jan 2 is already Jan 3 in IST.
	now := func() time.Time { return time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC) }
	svc := NewDigestService(&bookingRepoStub{}, newAvailabilityRepoStub(), &notifierStub{}, loc, now, nil)

	digest, err := svc.SendDailyDigest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if digest.Date != "2024-01-03" {
		t.Fatalf("expected local date 2024-01-03, got %s", digest.Date)
	}
}
