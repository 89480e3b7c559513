package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"errors"
	"fmt"
)

const liveSessionNote = "Live session attendance"

// FinalizeSession promotes the live entries of a session into attendance records
// and closes the session. The store applies all upserts in one transaction, so
// either every entry is written or none is.
func (s *Service) FinalizeSession(ctx context.Context, id int64) (*api.FinalizeResponse, error) {
	const op = "service.FinalizeSession"

	lockKey := fmt.Sprintf("session:%d:finalize", id)

	locked, err := s.locker.Lock(ctx, lockKey, s.cfg.FinalizeLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	class, err := s.store.GetClass(ctx, session.ClassID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrUnknownClass)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.ListLiveEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	records := promote(session, entries, class.DurationHours)

	if err := s.store.FinalizeSession(ctx, id, records, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.FinalizeResponse{
		SessionID:        id,
		RecordsProcessed: len(entries),
		Records:          make([]api.AttendanceResponse, 0, len(records)),
	}
	for _, record := range records {
		result.Records = append(result.Records, toAttendanceResponse(record))
	}

	return result, nil
}

// promote builds one record per member. Entries arrive in check-in order, so a
// member who checked in again is represented by the latest entry.
func promote(session *models.LiveSession, entries []*models.LiveAttendanceEntry, classHours float64) []*models.AttendanceRecord {
	byMember := make(map[int64]int, len(entries))
	records := make([]*models.AttendanceRecord, 0, len(entries))

	for _, entry := range entries {
		checkIn := entry.CheckInTime
		note := liveSessionNote

		record := &models.AttendanceRecord{
			MemberID:       entry.MemberID,
			ClassID:        session.ClassID,
			Date:           session.Date,
			Status:         entry.Status,
			HoursAttended:  sessionHours(entry, classHours),
			CheckInTime:    &checkIn,
			CheckOutTime:   entry.CheckOutTime,
			AttendanceType: models.AttendanceLiveUpdate,
			Notes:          &note,
		}

		if i, ok := byMember[entry.MemberID]; ok {
			records[i] = record
			continue
		}
		byMember[entry.MemberID] = len(records)
		records = append(records, record)
	}

	return records
}

func sessionHours(entry *models.LiveAttendanceEntry, fallback float64) float64 {
	if entry.CheckOutTime == nil {
		return fallback
	}
	return roundHours(entry.CheckOutTime.Sub(entry.CheckInTime).Hours())
}
