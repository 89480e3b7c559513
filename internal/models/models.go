package models

import "time"

type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "present"
	AttendanceAbsent    AttendanceStatus = "absent"
	AttendanceLate      AttendanceStatus = "late"
	AttendanceLeftEarly AttendanceStatus = "left_early"
	AttendanceExcused   AttendanceStatus = "excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceLeftEarly, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceType records which path created or last touched a record.
type AttendanceType string

const (
	AttendanceRegular          AttendanceType = "regular"
	AttendanceBackdated        AttendanceType = "backdated"
	AttendanceManualAdjustment AttendanceType = "manual_adjustment"
	AttendanceLiveUpdate       AttendanceType = "live_update"
)

func (t AttendanceType) Valid() bool {
	switch t {
	case AttendanceRegular, AttendanceBackdated, AttendanceManualAdjustment, AttendanceLiveUpdate:
		return true
	}
	return false
}

type AttendanceRecord struct {
	ID               int64            `db:"id"`
	MemberID         int64            `db:"member_id"`
	ClassID          int64            `db:"class_id"`
	Date             time.Time        `db:"date"`
	Status           AttendanceStatus `db:"status"`
	HoursAttended    float64          `db:"hours_attended"`
	CheckInTime      *time.Time       `db:"check_in_time"`
	CheckOutTime     *time.Time       `db:"check_out_time"`
	AttendanceType   AttendanceType   `db:"attendance_type"`
	AdjustedBy       *int64           `db:"adjusted_by"`
	AdjustmentReason *string          `db:"adjustment_reason"`
	Notes            *string          `db:"notes"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// AttendanceFilter narrows a history query. Nil fields are ignored.
type AttendanceFilter struct {
	MemberID *int64
	ClassID  *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Status   *AttendanceStatus
	Type     *AttendanceType
	Limit    int
	Offset   int
}

// AttendanceChanges holds the fields of a manual adjustment. Nil fields keep their value.
type AttendanceChanges struct {
	Status           *AttendanceStatus
	HoursAttended    *float64
	CheckInTime      *time.Time
	CheckOutTime     *time.Time
	Notes            *string
	AdjustedBy       int64
	AdjustmentReason string
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

type LiveSession struct {
	ID           int64         `db:"id"`
	ClassID      int64         `db:"class_id"`
	InstructorID int64         `db:"instructor_id"`
	Date         time.Time     `db:"date"`
	Status       SessionStatus `db:"status"`
	StartTime    time.Time     `db:"start_time"`
	EndTime      *time.Time    `db:"end_time"`
	FinalizedAt  *time.Time    `db:"finalized_at"`
	Notes        *string       `db:"notes"`
}

type LiveAttendanceEntry struct {
	ID           int64            `db:"id"`
	SessionID    int64            `db:"session_id"`
	MemberID     int64            `db:"member_id"`
	CheckInTime  time.Time        `db:"check_in_time"`
	CheckOutTime *time.Time       `db:"check_out_time"`
	Status       AttendanceStatus `db:"status"`
}

func (e *LiveAttendanceEntry) Open() bool {
	return e.CheckOutTime == nil
}

type ClassType string

const (
	ClassRegular  ClassType = "regular"
	ClassJunior   ClassType = "junior"
	ClassSenior   ClassType = "senior"
	ClassAdvanced ClassType = "advanced"
	ClassSpecial  ClassType = "special"
)

type Class struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	InstructorID    int64     `db:"instructor_id"`
	DojoID          *int64    `db:"dojo_id"`
	DayOfWeek       string    `db:"day_of_week"`
	StartTime       string    `db:"start_time"`
	EndTime         string    `db:"end_time"`
	DurationHours   float64   `db:"duration_hours"`
	ClassType       ClassType `db:"class_type"`
	MaxParticipants *int      `db:"max_participants"`
	Active          bool      `db:"active"`
	CreatedAt       time.Time `db:"created_at"`
}

type ClassFilter struct {
	Active       *bool
	InstructorID *int64
	DojoID       *int64
}

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberInactive  MemberStatus = "inactive"
	MemberSuspended MemberStatus = "suspended"
)

type Member struct {
	ID        int64        `db:"id"`
	FirstName string       `db:"first_name"`
	LastName  string       `db:"last_name"`
	Email     *string      `db:"email"`
	Status    MemberStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
}
