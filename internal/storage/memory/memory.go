// Package memory keeps every table in process memory. It enforces the same
// uniqueness and reference rules as the postgres schema and backs local runs and tests.
package memory

import (
	"context"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Storage struct {
	mu sync.RWMutex

	members    map[int64]*models.Member
	classes    map[int64]*models.Class
	attendance map[int64]*models.AttendanceRecord
	byKey      map[attendanceKey]int64
	sessions   map[int64]*models.LiveSession
	entries    map[int64]*models.LiveAttendanceEntry

	lastID int64
	clock  func() time.Time
}

type attendanceKey struct {
	memberID int64
	classID  int64
	date     string
}

func keyOf(r *models.AttendanceRecord) attendanceKey {
	return attendanceKey{memberID: r.MemberID, classID: r.ClassID, date: r.Date.Format("2006-01-02")}
}

func New() *Storage {
	return &Storage{
		members:    make(map[int64]*models.Member),
		classes:    make(map[int64]*models.Class),
		attendance: make(map[int64]*models.AttendanceRecord),
		byKey:      make(map[attendanceKey]int64),
		sessions:   make(map[int64]*models.LiveSession),
		entries:    make(map[int64]*models.LiveAttendanceEntry),
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) Ping(context.Context) error {
	return nil
}

func (s *Storage) nextID() int64 {
	s.lastID++
	return s.lastID
}

// #### members ####

func (s *Storage) CreateMember(_ context.Context, member *models.Member) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := *member
	m.ID = s.nextID()
	m.CreatedAt = s.clock()
	s.members[m.ID] = &m

	return m.ID, nil
}

func (s *Storage) GetMember(_ context.Context, id int64) (*models.Member, error) {
	const op = "storage.memory.GetMember"

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	out := *m
	return &out, nil
}

func (s *Storage) ListMembers(_ context.Context, status *models.MemberStatus) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		if status != nil && m.Status != *status {
			continue
		}
		out := *m
		result = append(result, &out)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// #### classes ####

func (s *Storage) CreateClass(_ context.Context, class *models.Class) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *class
	c.ID = s.nextID()
	c.CreatedAt = s.clock()
	s.classes[c.ID] = &c

	return c.ID, nil
}

func (s *Storage) GetClass(_ context.Context, id int64) (*models.Class, error) {
	const op = "storage.memory.GetClass"

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.classes[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	out := *c
	return &out, nil
}

var weekdays = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6, "sunday": 7,
}

func (s *Storage) ListClasses(_ context.Context, filter models.ClassFilter) ([]*models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Class, 0, len(s.classes))
	for _, c := range s.classes {
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		if filter.InstructorID != nil && c.InstructorID != *filter.InstructorID {
			continue
		}
		if filter.DojoID != nil && (c.DojoID == nil || *c.DojoID != *filter.DojoID) {
			continue
		}
		out := *c
		result = append(result, &out)
	}

	sort.Slice(result, func(i, j int) bool {
		if weekdays[result[i].DayOfWeek] != weekdays[result[j].DayOfWeek] {
			return weekdays[result[i].DayOfWeek] < weekdays[result[j].DayOfWeek]
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// #### attendance ####

func (s *Storage) checkRefs(memberID, classID int64) error {
	if _, ok := s.members[memberID]; !ok {
		return response.ErrUnknownMember
	}
	if _, ok := s.classes[classID]; !ok {
		return response.ErrUnknownClass
	}
	return nil
}

func (s *Storage) CreateAttendance(_ context.Context, record *models.AttendanceRecord) (int64, error) {
	const op = "storage.memory.CreateAttendance"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(record.MemberID, record.ClassID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	key := keyOf(record)
	if _, exists := s.byKey[key]; exists {
		return 0, fmt.Errorf("%s: %w", op, response.ErrDuplicateRecord)
	}

	r := *record
	r.ID = s.nextID()
	r.CreatedAt = s.clock()
	r.UpdatedAt = r.CreatedAt
	s.attendance[r.ID] = &r
	s.byKey[key] = r.ID

	return r.ID, nil
}

func (s *Storage) GetAttendance(_ context.Context, id int64) (*models.AttendanceRecord, error) {
	const op = "storage.memory.GetAttendance"

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.attendance[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrRecordNotFound)
	}

	out := *r
	return &out, nil
}

func (s *Storage) ListAttendance(_ context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.AttendanceRecord, 0)
	for _, r := range s.attendance {
		if !matches(r, filter) {
			continue
		}
		out := *r
		matched = append(matched, &out)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		// check_in_time DESC NULLS LAST, same as the SQL ordering
		switch {
		case a.CheckInTime != nil && b.CheckInTime == nil:
			return true
		case a.CheckInTime == nil && b.CheckInTime != nil:
			return false
		case a.CheckInTime != nil && !a.CheckInTime.Equal(*b.CheckInTime):
			return a.CheckInTime.After(*b.CheckInTime)
		}
		return a.ID > b.ID
	})

	if filter.Offset >= len(matched) {
		return []*models.AttendanceRecord{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func matches(r *models.AttendanceRecord, f models.AttendanceFilter) bool {
	switch {
	case f.MemberID != nil && r.MemberID != *f.MemberID:
		return false
	case f.ClassID != nil && r.ClassID != *f.ClassID:
		return false
	case f.DateFrom != nil && r.Date.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && r.Date.After(*f.DateTo):
		return false
	case f.Status != nil && r.Status != *f.Status:
		return false
	case f.Type != nil && r.AttendanceType != *f.Type:
		return false
	}
	return true
}

func (s *Storage) AdjustAttendance(_ context.Context, id int64, changes models.AttendanceChanges, at time.Time) error {
	const op = "storage.memory.AdjustAttendance"

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.attendance[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrRecordNotFound)
	}

	if changes.Status != nil {
		r.Status = *changes.Status
	}
	if changes.HoursAttended != nil {
		r.HoursAttended = *changes.HoursAttended
	}
	if changes.CheckInTime != nil {
		t := *changes.CheckInTime
		r.CheckInTime = &t
	}
	if changes.CheckOutTime != nil {
		t := *changes.CheckOutTime
		r.CheckOutTime = &t
	}
	if changes.Notes != nil {
		n := *changes.Notes
		r.Notes = &n
	}

	by, reason := changes.AdjustedBy, changes.AdjustmentReason
	r.AttendanceType = models.AttendanceManualAdjustment
	r.AdjustedBy = &by
	r.AdjustmentReason = &reason
	r.UpdatedAt = at

	return nil
}

// #### live sessions ####

func (s *Storage) CreateSession(_ context.Context, session *models.LiveSession) (int64, error) {
	const op = "storage.memory.CreateSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classes[session.ClassID]; !ok {
		return 0, fmt.Errorf("%s: %w", op, response.ErrUnknownClass)
	}

	ls := *session
	ls.ID = s.nextID()
	s.sessions[ls.ID] = &ls

	return ls.ID, nil
}

func (s *Storage) GetSession(_ context.Context, id int64) (*models.LiveSession, error) {
	const op = "storage.memory.GetSession"

	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
	}

	out := *ls
	return &out, nil
}

func (s *Storage) EndSession(_ context.Context, id int64, at time.Time) error {
	const op = "storage.memory.EndSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
	}

	if ls.Status == models.SessionActive {
		ls.Status = models.SessionEnded
		ls.EndTime = &at
	}

	return nil
}

func (s *Storage) CheckIn(_ context.Context, entry *models.LiveAttendanceEntry) (int64, error) {
	const op = "storage.memory.CheckIn"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[entry.SessionID]; !ok {
		return 0, fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
	}
	if _, ok := s.members[entry.MemberID]; !ok {
		return 0, fmt.Errorf("%s: %w", op, response.ErrUnknownMember)
	}

	if s.openEntry(entry.SessionID, entry.MemberID) != nil {
		return 0, fmt.Errorf("%s: %w", op, response.ErrAlreadyCheckedIn)
	}

	e := *entry
	e.ID = s.nextID()
	s.entries[e.ID] = &e

	return e.ID, nil
}

func (s *Storage) openEntry(sessionID, memberID int64) *models.LiveAttendanceEntry {
	for _, e := range s.entries {
		if e.SessionID == sessionID && e.MemberID == memberID && e.Open() {
			return e
		}
	}
	return nil
}

func (s *Storage) CheckOut(_ context.Context, sessionID, memberID int64, at time.Time) (*models.LiveAttendanceEntry, error) {
	const op = "storage.memory.CheckOut"

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.openEntry(sessionID, memberID)
	if e == nil {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotCheckedIn)
	}

	e.CheckOutTime = &at
	e.Status = models.AttendanceLeftEarly

	out := *e
	return &out, nil
}

func (s *Storage) ListLiveEntries(_ context.Context, sessionID int64) ([]*models.LiveAttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.LiveAttendanceEntry, 0)
	for _, e := range s.entries {
		if e.SessionID != sessionID {
			continue
		}
		out := *e
		result = append(result, &out)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CheckInTime.Equal(result[j].CheckInTime) {
			return result[i].CheckInTime.Before(result[j].CheckInTime)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// FinalizeSession validates every record before touching state so that a bad
// record leaves the store unchanged.
func (s *Storage) FinalizeSession(_ context.Context, sessionID int64, records []*models.AttendanceRecord, at time.Time) error {
	const op = "storage.memory.FinalizeSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
	}

	for _, r := range records {
		if err := s.checkRefs(r.MemberID, r.ClassID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, r := range records {
		key := keyOf(r)
		stored := *r
		stored.UpdatedAt = at

		if id, exists := s.byKey[key]; exists {
			stored.ID = id
			stored.CreatedAt = s.attendance[id].CreatedAt
		} else {
			stored.ID = s.nextID()
			stored.CreatedAt = at
			s.byKey[key] = stored.ID
		}

		s.attendance[stored.ID] = &stored
		r.ID = stored.ID
	}

	if ls.Status == models.SessionActive {
		ls.Status = models.SessionEnded
		ls.EndTime = &at
	}
	ls.FinalizedAt = &at

	return nil
}
