package api

import "time"

const DateLayout = "2006-01-02"

type AttendanceRequest struct {
	MemberID      int64    `json:"member_id" validate:"required,gt=0"`
	ClassID       int64    `json:"class_id" validate:"required,gt=0"`
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	Status        string   `json:"status,omitempty" validate:"omitempty,oneof=present absent late left_early excused"`
	HoursAttended *float64 `json:"hours_attended,omitempty" validate:"omitempty,gte=0,lte=24"`
	Notes         *string  `json:"notes,omitempty"`
}

type BackdateRequest struct {
	MemberID         int64      `json:"member_id" validate:"required,gt=0"`
	ClassID          int64      `json:"class_id" validate:"required,gt=0"`
	Date             string     `json:"date" validate:"required,datetime=2006-01-02"`
	Status           string     `json:"status" validate:"required,oneof=present absent late left_early excused"`
	HoursAttended    *float64   `json:"hours_attended,omitempty" validate:"omitempty,gte=0,lte=24"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	AdjustmentReason string     `json:"adjustment_reason"`
	Notes            *string    `json:"notes,omitempty"`
}

type AdjustRequest struct {
	Status           *string    `json:"status,omitempty" validate:"omitempty,oneof=present absent late left_early excused"`
	HoursAttended    *float64   `json:"hours_attended,omitempty" validate:"omitempty,gte=0,lte=24"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	AdjustmentReason string     `json:"adjustment_reason"`
}

type AttendanceResponse struct {
	ID               int64      `json:"id"`
	MemberID         int64      `json:"member_id"`
	ClassID          int64      `json:"class_id"`
	Date             string     `json:"date"`
	Status           string     `json:"status"`
	HoursAttended    float64    `json:"hours_attended"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	AttendanceType   string     `json:"attendance_type"`
	AdjustedBy       *int64     `json:"adjusted_by,omitempty"`
	AdjustmentReason *string    `json:"adjustment_reason,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// AttendanceQuery carries the raw history filters after query-string parsing.
type AttendanceQuery struct {
	MemberID       *int64
	ClassID        *int64
	DateFrom       *string
	DateTo         *string
	Status         *string
	AttendanceType *string
	Limit          int
	Offset         int
}

type SessionRequest struct {
	ClassID int64   `json:"class_id" validate:"required,gt=0"`
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
	Notes   *string `json:"notes,omitempty"`
}

type SessionResponse struct {
	ID           int64      `json:"id"`
	ClassID      int64      `json:"class_id"`
	InstructorID int64      `json:"instructor_id"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	FinalizedAt  *time.Time `json:"finalized_at,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

type LiveActionRequest struct {
	SessionID int64  `json:"session_id" validate:"required,gt=0"`
	MemberID  int64  `json:"member_id" validate:"required,gt=0"`
	Action    string `json:"action" validate:"required,oneof=check_in check_out"`
}

type LiveEntryResponse struct {
	ID           int64      `json:"id"`
	SessionID    int64      `json:"session_id"`
	MemberID     int64      `json:"member_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Status       string     `json:"status"`
}

type LiveRosterResponse struct {
	CheckedIn  []LiveEntryResponse `json:"checked_in"`
	CheckedOut []LiveEntryResponse `json:"checked_out"`
}

type FinalizeResponse struct {
	SessionID        int64                `json:"session_id"`
	RecordsProcessed int                  `json:"records_processed"`
	Records          []AttendanceResponse `json:"records"`
}

type ClassRequest struct {
	Name            string   `json:"name" validate:"required"`
	Description     *string  `json:"description,omitempty"`
	InstructorID    int64    `json:"instructor_id" validate:"required,gt=0"`
	DojoID          *int64   `json:"dojo_id,omitempty" validate:"omitempty,gt=0"`
	DayOfWeek       string   `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime       string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string   `json:"end_time" validate:"required,datetime=15:04"`
	DurationHours   *float64 `json:"duration_hours,omitempty" validate:"omitempty,gte=0.25,lte=8"`
	ClassType       string   `json:"class_type,omitempty" validate:"omitempty,oneof=regular junior senior advanced special"`
	MaxParticipants *int     `json:"max_participants,omitempty" validate:"omitempty,gt=0"`
}

type ClassResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	InstructorID    int64   `json:"instructor_id"`
	DojoID          *int64  `json:"dojo_id,omitempty"`
	DayOfWeek       string  `json:"day_of_week"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationHours   float64 `json:"duration_hours"`
	ClassType       string  `json:"class_type"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
	Active          bool    `json:"active"`
}

type MemberRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Status    string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive suspended"`
}

type MemberResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
	Status    string  `json:"status"`
}
