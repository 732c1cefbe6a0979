package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DigestService summarises the campus day for administrators.
type DigestService struct {
	bookings     BookingRepository
	availability FacultyAvailabilityRepository
	notifier     Notifier
	location     *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

// NewDigestService constructs a digest service. "Today" is evaluated in location.
func NewDigestService(bookings BookingRepository, availability FacultyAvailabilityRepository, notifier Notifier, location *time.Location, now func() time.Time, logger *slog.Logger) *DigestService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DigestService{
		bookings:     bookings,
		availability: availability,
		notifier:     notifier,
		location:     location,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// SendDailyDigest counts today's active bookings and absent faculty and notifies admins.
func (s *DigestService) SendDailyDigest(ctx context.Context) (digest Digest, err error) {
	if s == nil || s.bookings == nil || s.availability == nil || s.notifier == nil {
		err = fmt.Errorf("digest service not configured")
		return
	}

	local := s.now().In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	digest.Date = start.Format(dateLayout)

	logger := serviceLogger(ctx, s.logger, "DigestService", "SendDailyDigest", "date", digest.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to send daily digest", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bookings", digest.Bookings, "absent_faculty", digest.AbsentFaculty).InfoContext(ctx, "daily digest sent")
	}()

	if digest.Bookings, err = s.bookings.CountActiveOverlapping(ctx, start, start.AddDate(0, 0, 1)); err != nil {
		err = mapBookingRepoError(err)
		return
	}

	var absent []FacultyAvailability
	absent, err = s.availability.ListAvailability(ctx, AvailabilityFilter{From: digest.Date, To: digest.Date, Status: AvailabilityAbsent})
	if err != nil {
		err = mapAvailabilityRepoError(err)
		return
	}
	digest.AbsentFaculty = len(absent)

	var notification Notification
	notification, err = s.notifier.Notify(ctx, NotificationInput{
		Recipients: []string{string(RoleAdmin)},
		Title:      "Daily summary",
		Body:       fmt.Sprintf("%s: %d bookings, %d faculty absent", digest.Date, digest.Bookings, digest.AbsentFaculty),
		Type:       "digest",
		Meta: map[string]any{
			"date":           digest.Date,
			"bookings":       digest.Bookings,
			"absent_faculty": digest.AbsentFaculty,
		},
	})
	if err != nil {
		return
	}
	digest.NotificationID = notification.ID
	return
}
