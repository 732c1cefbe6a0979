package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNotificationService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("students may not send", func(t *testing.T) {
		svc := NewNotificationService(&notificationRepoStub{}, nil, nil, fixedNow)
		_, err := svc.Send(ctx, SendNotificationParams{Principal: studentPrincipal, Input: NotificationInput{Title: "t", Body: "b"}})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("stores, stamps sender and publishes", func(t *testing.T) {
		repo := &notificationRepoStub{}
		publisher := &publisherStub{}
		svc := NewNotificationService(repo, publisher, func() string { return "n-1" }, fixedNow)

		notification, err := svc.Send(ctx, SendNotificationParams{
			Principal: facultyPrincipal,
			Input:     NotificationInput{Title: " Exam ", Body: "Room changed", Recipients: []string{"student", " student "}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if notification.Type != "info" || notification.Title != "Exam" {
			t.Fatalf("unexpected notification %+v", notification)
		}
		if len(notification.Recipients) != 1 || notification.Recipients[0] != "student" {
			t.Fatalf("expected deduplicated recipients, got %v", notification.Recipients)
		}
		if notification.Meta["sender_id"] != facultyPrincipal.UserID {
			t.Fatalf("expected sender_id meta, got %v", notification.Meta)
		}
		if len(publisher.published) != 1 || publisher.published[0].ID != "n-1" {
			t.Fatalf("expected publish of n-1, got %+v", publisher.published)
		}
	})

	t.Run("publish failures are not fatal", func(t *testing.T) {
		repo := &notificationRepoStub{}
		svc := NewNotificationService(repo, &publisherStub{err: fmt.Errorf("hub closed")}, nil, fixedNow)
		if _, err := svc.Notify(ctx, NotificationInput{Title: "t", Body: "b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(repo.notifications) != 1 {
			t.Fatal("expected notification to be stored")
		}
	})

	t.Run("validates title and body", func(t *testing.T) {
		svc := NewNotificationService(&notificationRepoStub{}, nil, nil, fixedNow)
		_, err := svc.Notify(ctx, NotificationInput{Title: " "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["title"] == "" || vErr.FieldErrors["body"] == "" {
			t.Fatalf("expected title and body errors, got %v", err)
		}
	})
}

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, sequentialIDs("n"), fixedNow)

	for _, recipients := range [][]string{nil, {"faculty"}, {studentPrincipal.UserID}, {"admin"}} {
		if _, err := svc.Notify(ctx, NotificationInput{Title: "t", Body: "b", Recipients: recipients}); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	got, err := svc.List(ctx, ListNotificationsParams{Principal: studentPrincipal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "n-3" || got[1].ID != "n-1" {
		t.Fatalf("unexpected notifications %+v", got)
	}
	if repo.limit != defaultNotificationLimit {
		t.Fatalf("expected default limit, got %d", repo.limit)
	}

	if _, err := svc.List(ctx, ListNotificationsParams{Principal: studentPrincipal, Limit: 10000}); err != nil || repo.limit != maxNotificationLimit {
		t.Fatalf("expected clamped limit, got %d (%v)", repo.limit, err)
	}
	if _, err := svc.List(ctx, ListNotificationsParams{Principal: studentPrincipal, Limit: -1}); err == nil {
		t.Fatal("expected validation error for negative limit")
	}
}

func TestVisibleTo(t *testing.T) {
	broadcast := Notification{}
	toFaculty := Notification{Recipients: []string{"faculty"}}
	toUser := Notification{Recipients: []string{"u1"}}

	if !VisibleTo(broadcast, "u9", RoleStudent) {
		t.Fatal("broadcast must be visible to everyone")
	}
	if !VisibleTo(toFaculty, "u9", RoleFaculty) || VisibleTo(toFaculty, "u9", RoleStudent) {
		t.Fatal("role addressing mismatch")
	}
	if !VisibleTo(toUser, "u1", RoleStudent) || VisibleTo(toUser, "u2", RoleStudent) {
		t.Fatal("user addressing mismatch")
	}
}
