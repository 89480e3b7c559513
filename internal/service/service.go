package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/lock"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	defaultPageSize    = 100
	defaultMaxPageSize = 500
	defaultLockTTL     = 30 * time.Second
)

type Service struct {
	store  Store
	locker lock.Locker
	cfg    Config
	now    func() time.Time
}

type Config struct {
	MaxPageSize     int
	FinalizeLockTTL time.Duration
}

func NewService(store Store, locker lock.Locker, cfg Config) *Service {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	if cfg.FinalizeLockTTL <= 0 {
		cfg.FinalizeLockTTL = defaultLockTTL
	}

	return &Service{
		store:  store,
		locker: locker,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type Store interface {
	Ping(ctx context.Context) error

	// Members
	CreateMember(ctx context.Context, member *models.Member) (int64, error)
	GetMember(ctx context.Context, id int64) (*models.Member, error)
	ListMembers(ctx context.Context, status *models.MemberStatus) ([]*models.Member, error)

	// Classes
	CreateClass(ctx context.Context, class *models.Class) (int64, error)
	GetClass(ctx context.Context, id int64) (*models.Class, error)
	ListClasses(ctx context.Context, filter models.ClassFilter) ([]*models.Class, error)

	// Attendance
	CreateAttendance(ctx context.Context, record *models.AttendanceRecord) (int64, error)
	GetAttendance(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error)
	AdjustAttendance(ctx context.Context, id int64, changes models.AttendanceChanges, at time.Time) error

	// Live sessions
	CreateSession(ctx context.Context, session *models.LiveSession) (int64, error)
	GetSession(ctx context.Context, id int64) (*models.LiveSession, error)
	EndSession(ctx context.Context, id int64, at time.Time) error
	CheckIn(ctx context.Context, entry *models.LiveAttendanceEntry) (int64, error)
	CheckOut(ctx context.Context, sessionID, memberID int64, at time.Time) (*models.LiveAttendanceEntry, error)
	ListLiveEntries(ctx context.Context, sessionID int64) ([]*models.LiveAttendanceEntry, error)
	FinalizeSession(ctx context.Context, sessionID int64, records []*models.AttendanceRecord, at time.Time) error
}

func (s *Service) Ping(ctx context.Context) error {
	const op = "service.Ping"

	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(api.DateLayout, value)
	if err != nil {
		return time.Time{}, response.Invalid("%s must be a YYYY-MM-DD date", field)
	}
	return d, nil
}

func validHours(h float64) bool {
	return !math.IsNaN(h) && h >= 0 && h <= 24
}

// roundHours keeps two decimals and clamps into the allowed [0,24] range.
func roundHours(h float64) float64 {
	h = math.Round(h*100) / 100
	return math.Min(math.Max(h, 0), 24)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func toAttendanceResponse(rec *models.AttendanceRecord) api.AttendanceResponse {
	return api.AttendanceResponse{
		ID:               rec.ID,
		MemberID:         rec.MemberID,
		ClassID:          rec.ClassID,
		Date:             rec.Date.Format(api.DateLayout),
		Status:           string(rec.Status),
		HoursAttended:    rec.HoursAttended,
		CheckInTime:      rec.CheckInTime,
		CheckOutTime:     rec.CheckOutTime,
		AttendanceType:   string(rec.AttendanceType),
		AdjustedBy:       rec.AdjustedBy,
		AdjustmentReason: rec.AdjustmentReason,
		Notes:            rec.Notes,
	}
}

func toSessionResponse(session *models.LiveSession) *api.SessionResponse {
	return &api.SessionResponse{
		ID:           session.ID,
		ClassID:      session.ClassID,
		InstructorID: session.InstructorID,
		Date:         session.Date.Format(api.DateLayout),
		Status:       string(session.Status),
		StartTime:    session.StartTime,
		EndTime:      session.EndTime,
		FinalizedAt:  session.FinalizedAt,
		Notes:        session.Notes,
	}
}

func toLiveEntryResponse(entry *models.LiveAttendanceEntry) api.LiveEntryResponse {
	return api.LiveEntryResponse{
		ID:           entry.ID,
		SessionID:    entry.SessionID,
		MemberID:     entry.MemberID,
		CheckInTime:  entry.CheckInTime,
		CheckOutTime: entry.CheckOutTime,
		Status:       string(entry.Status),
	}
}
