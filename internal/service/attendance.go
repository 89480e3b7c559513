package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"errors"
	"fmt"
	"strings"
)

// Attendance

func (s *Service) CreateAttendance(ctx context.Context, req *api.AttendanceRequest) (*api.AttendanceResponse, error) {
	const op = "service.CreateAttendance"

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := models.AttendancePresent
	if req.Status != "" {
		status = models.AttendanceStatus(req.Status)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("invalid status %q", req.Status))
	}

	hours, err := s.resolveHours(ctx, req.ClassID, req.HoursAttended)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	record := &models.AttendanceRecord{
		MemberID:       req.MemberID,
		ClassID:        req.ClassID,
		Date:           date,
		Status:         status,
		HoursAttended:  hours,
		AttendanceType: models.AttendanceRegular,
		Notes:          req.Notes,
	}
	if status == models.AttendancePresent {
		now := s.now()
		record.CheckInTime = &now
	}

	id, err := s.store.CreateAttendance(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAttendance(ctx, id)
}

func (s *Service) CreateBackdatedAttendance(ctx context.Context, actorID int64, req *api.BackdateRequest) (*api.AttendanceResponse, error) {
	const op = "service.CreateBackdatedAttendance"

	if blank(req.AdjustmentReason) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrMissingReason)
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("invalid status %q", req.Status))
	}

	if req.CheckInTime != nil && req.CheckOutTime != nil && req.CheckOutTime.Before(*req.CheckInTime) {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("check_out_time is before check_in_time"))
	}

	hours, err := s.resolveHours(ctx, req.ClassID, req.HoursAttended)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reason := strings.TrimSpace(req.AdjustmentReason)
	record := &models.AttendanceRecord{
		MemberID:         req.MemberID,
		ClassID:          req.ClassID,
		Date:             date,
		Status:           status,
		HoursAttended:    hours,
		CheckInTime:      req.CheckInTime,
		CheckOutTime:     req.CheckOutTime,
		AttendanceType:   models.AttendanceBackdated,
		AdjustedBy:       &actorID,
		AdjustmentReason: &reason,
		Notes:            req.Notes,
	}

	id, err := s.store.CreateAttendance(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAttendance(ctx, id)
}

func (s *Service) GetAttendance(ctx context.Context, id int64) (*api.AttendanceResponse, error) {
	const op = "service.GetAttendance"

	record, err := s.store.GetAttendance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toAttendanceResponse(record)
	return &resp, nil
}

func (s *Service) ListAttendance(ctx context.Context, q *api.AttendanceQuery) ([]api.AttendanceResponse, error) {
	const op = "service.ListAttendance"

	filter := models.AttendanceFilter{
		MemberID: q.MemberID,
		ClassID:  q.ClassID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	if q.DateFrom != nil {
		d, err := parseDate("date_from", *q.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		filter.DateFrom = &d
	}
	if q.DateTo != nil {
		d, err := parseDate("date_to", *q.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		filter.DateTo = &d
	}
	if q.Status != nil {
		status := models.AttendanceStatus(*q.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%s: %w", op, response.Invalid("invalid status %q", *q.Status))
		}
		filter.Status = &status
	}
	if q.AttendanceType != nil {
		typ := models.AttendanceType(*q.AttendanceType)
		if !typ.Valid() {
			return nil, fmt.Errorf("%s: %w", op, response.Invalid("invalid attendance_type %q", *q.AttendanceType))
		}
		filter.Type = &typ
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > s.cfg.MaxPageSize {
		filter.Limit = s.cfg.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	records, err := s.store.ListAttendance(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.AttendanceResponse, 0, len(records))
	for _, record := range records {
		result = append(result, toAttendanceResponse(record))
	}

	return result, nil
}

// ClassDayAttendance returns every record of one class on one date.
func (s *Service) ClassDayAttendance(ctx context.Context, classID int64, date string) ([]api.AttendanceResponse, error) {
	return s.ListAttendance(ctx, &api.AttendanceQuery{
		ClassID:  &classID,
		DateFrom: &date,
		DateTo:   &date,
		Limit:    s.cfg.MaxPageSize,
	})
}

// AdjustAttendance applies a manual correction. Only supplied fields change,
// but the provenance and audit fields are always overwritten.
func (s *Service) AdjustAttendance(ctx context.Context, actorID, id int64, req *api.AdjustRequest) (*api.AttendanceResponse, error) {
	const op = "service.AdjustAttendance"

	if blank(req.AdjustmentReason) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrMissingReason)
	}

	changes := models.AttendanceChanges{
		HoursAttended:    req.HoursAttended,
		CheckInTime:      req.CheckInTime,
		CheckOutTime:     req.CheckOutTime,
		Notes:            req.Notes,
		AdjustedBy:       actorID,
		AdjustmentReason: strings.TrimSpace(req.AdjustmentReason),
	}

	if req.Status != nil {
		status := models.AttendanceStatus(*req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%s: %w", op, response.Invalid("invalid status %q", *req.Status))
		}
		changes.Status = &status
	}
	if req.HoursAttended != nil && !validHours(*req.HoursAttended) {
		return nil, fmt.Errorf("%s: %w", op, response.Invalid("hours_attended must be between 0 and 24"))
	}

	if err := s.store.AdjustAttendance(ctx, id, changes, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAttendance(ctx, id)
}

// resolveHours returns the explicit hours when given, otherwise the class duration.
func (s *Service) resolveHours(ctx context.Context, classID int64, hours *float64) (float64, error) {
	if hours != nil {
		if !validHours(*hours) {
			return 0, response.Invalid("hours_attended must be between 0 and 24")
		}
		return *hours, nil
	}

	class, err := s.store.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return 0, response.ErrUnknownClass
		}
		return 0, err
	}

	return class.DurationHours, nil
}
