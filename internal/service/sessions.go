package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"errors"
	"fmt"
)

// Live sessions

func (s *Service) StartSession(ctx context.Context, instructorID int64, req *api.SessionRequest) (*api.SessionResponse, error) {
	const op = "service.StartSession"

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.GetClass(ctx, req.ClassID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrUnknownClass)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &models.LiveSession{
		ClassID:      req.ClassID,
		InstructorID: instructorID,
		Date:         date,
		Status:       models.SessionActive,
		StartTime:    s.now(),
		Notes:        req.Notes,
	}

	id, err := s.store.CreateSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSession(ctx, id)
}

func (s *Service) GetSession(ctx context.Context, id int64) (*api.SessionResponse, error) {
	const op = "service.GetSession"

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toSessionResponse(session), nil
}

// EndSession stops further check-ins. Ending an ended session is a no-op
// and keeps the original end time.
func (s *Service) EndSession(ctx context.Context, id int64) (*api.SessionResponse, error) {
	const op = "service.EndSession"

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.Status == models.SessionEnded {
		return toSessionResponse(session), nil
	}

	if err := s.store.EndSession(ctx, id, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSession(ctx, id)
}

func (s *Service) CheckIn(ctx context.Context, sessionID, memberID int64) (*api.LiveEntryResponse, error) {
	const op = "service.CheckIn"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.Status != models.SessionActive {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSessionNotActive)
	}

	entry := &models.LiveAttendanceEntry{
		SessionID:   sessionID,
		MemberID:    memberID,
		CheckInTime: s.now(),
		Status:      models.AttendancePresent,
	}

	id, err := s.store.CheckIn(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entry.ID = id

	resp := toLiveEntryResponse(entry)
	return &resp, nil
}

func (s *Service) CheckOut(ctx context.Context, sessionID, memberID int64) (*api.LiveEntryResponse, error) {
	const op = "service.CheckOut"

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry, err := s.store.CheckOut(ctx, sessionID, memberID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toLiveEntryResponse(entry)
	return &resp, nil
}

// LiveRoster splits the entries of a session into members still on the mat
// and members who already checked out.
func (s *Service) LiveRoster(ctx context.Context, sessionID int64) (*api.LiveRosterResponse, error) {
	const op = "service.LiveRoster"

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.ListLiveEntries(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roster := &api.LiveRosterResponse{
		CheckedIn:  make([]api.LiveEntryResponse, 0),
		CheckedOut: make([]api.LiveEntryResponse, 0),
	}
	for _, entry := range entries {
		if entry.Open() {
			roster.CheckedIn = append(roster.CheckedIn, toLiveEntryResponse(entry))
		} else {
			roster.CheckedOut = append(roster.CheckedOut, toLiveEntryResponse(entry))
		}
	}

	return roster, nil
}
