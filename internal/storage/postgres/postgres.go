package postgres

import (
	"context"
	"database/sql"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	attendanceKeyConstraint = "attendance_member_class_date_key"
	openEntryConstraint     = "live_attendance_open_entry_idx"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded goose migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// mapError turns constraint violations into domain errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case uniqueViolation:
		switch pqErr.Constraint {
		case attendanceKeyConstraint:
			return response.ErrDuplicateRecord
		case openEntryConstraint:
			return response.ErrAlreadyCheckedIn
		}
	case foreignKeyViolation:
		switch {
		case strings.Contains(pqErr.Constraint, "member_id"):
			return response.ErrUnknownMember
		case strings.Contains(pqErr.Constraint, "class_id"):
			return response.ErrUnknownClass
		case strings.Contains(pqErr.Constraint, "session_id"):
			return response.ErrSessionNotFound
		}
	}

	return err
}

// #### members ####

func (s *Storage) CreateMember(ctx context.Context, member *models.Member) (int64, error) {
	const op = "storage.postgres.CreateMember"

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO members (first_name, last_name, email, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		member.FirstName,
		member.LastName,
		member.Email,
		string(member.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	const op = "storage.postgres.GetMember"

	var m models.Member
	err := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, status, created_at
		FROM members WHERE id=$1`, id).
		Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) ListMembers(ctx context.Context, status *models.MemberStatus) ([]*models.Member, error) {
	const op = "storage.postgres.ListMembers"

	query := `SELECT id, first_name, last_name, email, status, created_at FROM members`
	var args []any
	if status != nil {
		query += ` WHERE status=$1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY last_name, first_name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return members, nil
}

// #### classes ####

const classColumns = `id, name, description, instructor_id, dojo_id, day_of_week, start_time, end_time,
	duration_hours, class_type, max_participants, active, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanClass(row scanner) (*models.Class, error) {
	var c models.Class
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.InstructorID,
		&c.DojoID,
		&c.DayOfWeek,
		&c.StartTime,
		&c.EndTime,
		&c.DurationHours,
		&c.ClassType,
		&c.MaxParticipants,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CreateClass(ctx context.Context, class *models.Class) (int64, error) {
	const op = "storage.postgres.CreateClass"

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO classes
		(name, description, instructor_id, dojo_id, day_of_week, start_time, end_time,
		duration_hours, class_type, max_participants, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		class.Name,
		class.Description,
		class.InstructorID,
		class.DojoID,
		class.DayOfWeek,
		class.StartTime,
		class.EndTime,
		class.DurationHours,
		string(class.ClassType),
		class.MaxParticipants,
		class.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	const op = "storage.postgres.GetClass"

	c, err := scanClass(s.db.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Storage) ListClasses(ctx context.Context, filter models.ClassFilter) ([]*models.Class, error) {
	const op = "storage.postgres.ListClasses"

	var b whereBuilder
	if filter.Active != nil {
		b.add("active = %s", *filter.Active)
	}
	if filter.InstructorID != nil {
		b.add("instructor_id = %s", *filter.InstructorID)
	}
	if filter.DojoID != nil {
		b.add("dojo_id = %s", *filter.DojoID)
	}

	query := `SELECT ` + classColumns + ` FROM classes` + b.where() + `
		ORDER BY array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'], day_of_week),
		start_time, id`

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return classes, nil
}

// #### attendance ####

const attendanceColumns = `id, member_id, class_id, date, status, hours_attended, check_in_time, check_out_time,
	attendance_type, adjusted_by, adjustment_reason, notes, created_at, updated_at`

func scanAttendance(row scanner) (*models.AttendanceRecord, error) {
	var r models.AttendanceRecord
	err := row.Scan(
		&r.ID,
		&r.MemberID,
		&r.ClassID,
		&r.Date,
		&r.Status,
		&r.HoursAttended,
		&r.CheckInTime,
		&r.CheckOutTime,
		&r.AttendanceType,
		&r.AdjustedBy,
		&r.AdjustmentReason,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateAttendance relies on the (member_id, class_id, date) unique constraint
// instead of reading for an existing row first.
func (s *Storage) CreateAttendance(ctx context.Context, record *models.AttendanceRecord) (int64, error) {
	const op = "storage.postgres.CreateAttendance"

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO attendance
		(member_id, class_id, date, status, hours_attended, check_in_time, check_out_time,
		attendance_type, adjusted_by, adjustment_reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		record.MemberID,
		record.ClassID,
		record.Date,
		string(record.Status),
		record.HoursAttended,
		record.CheckInTime,
		record.CheckOutTime,
		string(record.AttendanceType),
		record.AdjustedBy,
		record.AdjustmentReason,
		record.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return id, nil
}

func (s *Storage) GetAttendance(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	const op = "storage.postgres.GetAttendance"

	r, err := scanAttendance(s.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}

func (s *Storage) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error) {
	const op = "storage.postgres.ListAttendance"

	var b whereBuilder
	if filter.MemberID != nil {
		b.add("member_id = %s", *filter.MemberID)
	}
	if filter.ClassID != nil {
		b.add("class_id = %s", *filter.ClassID)
	}
	if filter.DateFrom != nil {
		b.add("date >= %s", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		b.add("date <= %s", *filter.DateTo)
	}
	if filter.Status != nil {
		b.add("status = %s", string(*filter.Status))
	}
	if filter.Type != nil {
		b.add("attendance_type = %s", string(*filter.Type))
	}

	query := fmt.Sprintf(`SELECT %s FROM attendance%s
		ORDER BY date DESC, check_in_time DESC NULLS LAST, id DESC
		LIMIT %s OFFSET %s`,
		attendanceColumns, b.where(), b.arg(filter.Limit), b.arg(filter.Offset))

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records := make([]*models.AttendanceRecord, 0)
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) AdjustAttendance(ctx context.Context, id int64, changes models.AttendanceChanges, at time.Time) error {
	const op = "storage.postgres.AdjustAttendance"

	var status *string
	if changes.Status != nil {
		v := string(*changes.Status)
		status = &v
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE attendance SET
			status = COALESCE($1, status),
			hours_attended = COALESCE($2, hours_attended),
			check_in_time = COALESCE($3, check_in_time),
			check_out_time = COALESCE($4, check_out_time),
			notes = COALESCE($5, notes),
			attendance_type = $6,
			adjusted_by = $7,
			adjustment_reason = $8,
			updated_at = $9
		WHERE id = $10`,
		status,
		changes.HoursAttended,
		changes.CheckInTime,
		changes.CheckOutTime,
		changes.Notes,
		string(models.AttendanceManualAdjustment),
		changes.AdjustedBy,
		changes.AdjustmentReason,
		at,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrRecordNotFound)
	}

	return nil
}

// #### live sessions ####

func (s *Storage) CreateSession(ctx context.Context, session *models.LiveSession) (int64, error) {
	const op = "storage.postgres.CreateSession"

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO attendance_sessions (class_id, instructor_id, date, status, start_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		session.ClassID,
		session.InstructorID,
		session.Date,
		string(session.Status),
		session.StartTime,
		session.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return id, nil
}

func (s *Storage) GetSession(ctx context.Context, id int64) (*models.LiveSession, error) {
	const op = "storage.postgres.GetSession"

	var ls models.LiveSession
	err := s.db.QueryRowContext(ctx,
		`SELECT id, class_id, instructor_id, date, status, start_time, end_time, finalized_at, notes
		FROM attendance_sessions WHERE id=$1`, id).
		Scan(
			&ls.ID,
			&ls.ClassID,
			&ls.InstructorID,
			&ls.Date,
			&ls.Status,
			&ls.StartTime,
			&ls.EndTime,
			&ls.FinalizedAt,
			&ls.Notes,
		)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ls, nil
}

func (s *Storage) EndSession(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.postgres.EndSession"

	res, err := s.db.ExecContext(ctx,
		`UPDATE attendance_sessions SET status=$1, end_time=$2
		WHERE id=$3 AND status=$4`,
		string(models.SessionEnded), at, id, string(models.SessionActive))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		// either gone or ended concurrently; only the former is an error
		if _, err := s.GetSession(ctx, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (s *Storage) CheckIn(ctx context.Context, entry *models.LiveAttendanceEntry) (int64, error) {
	const op = "storage.postgres.CheckIn"

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO live_attendance (session_id, member_id, check_in_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		entry.SessionID,
		entry.MemberID,
		entry.CheckInTime,
		string(entry.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return id, nil
}

func (s *Storage) CheckOut(ctx context.Context, sessionID, memberID int64, at time.Time) (*models.LiveAttendanceEntry, error) {
	const op = "storage.postgres.CheckOut"

	var e models.LiveAttendanceEntry
	err := s.db.QueryRowContext(ctx,
		`UPDATE live_attendance SET check_out_time=$1, status=$2
		WHERE session_id=$3 AND member_id=$4 AND check_out_time IS NULL
		RETURNING id, session_id, member_id, check_in_time, check_out_time, status`,
		at, string(models.AttendanceLeftEarly), sessionID, memberID).
		Scan(&e.ID, &e.SessionID, &e.MemberID, &e.CheckInTime, &e.CheckOutTime, &e.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotCheckedIn)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &e, nil
}

func (s *Storage) ListLiveEntries(ctx context.Context, sessionID int64) ([]*models.LiveAttendanceEntry, error) {
	const op = "storage.postgres.ListLiveEntries"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, member_id, check_in_time, check_out_time, status
		FROM live_attendance WHERE session_id=$1
		ORDER BY check_in_time, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries := make([]*models.LiveAttendanceEntry, 0)
	for rows.Next() {
		var e models.LiveAttendanceEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.MemberID, &e.CheckInTime, &e.CheckOutTime, &e.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}

// FinalizeSession upserts every record and closes the session in one transaction.
func (s *Storage) FinalizeSession(ctx context.Context, sessionID int64, records []*models.AttendanceRecord, at time.Time) error {
	const op = "storage.postgres.FinalizeSession"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM attendance_sessions WHERE id=$1 FOR UPDATE`, sessionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, response.ErrSessionNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range records {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO attendance
			(member_id, class_id, date, status, hours_attended, check_in_time, check_out_time,
			attendance_type, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			ON CONFLICT ON CONSTRAINT `+attendanceKeyConstraint+`
			DO UPDATE SET
				status = EXCLUDED.status,
				hours_attended = EXCLUDED.hours_attended,
				check_in_time = EXCLUDED.check_in_time,
				check_out_time = EXCLUDED.check_out_time,
				attendance_type = EXCLUDED.attendance_type,
				adjusted_by = NULL,
				adjustment_reason = NULL,
				notes = EXCLUDED.notes,
				updated_at = EXCLUDED.updated_at
			RETURNING id`,
			r.MemberID,
			r.ClassID,
			r.Date,
			string(r.Status),
			r.HoursAttended,
			r.CheckInTime,
			r.CheckOutTime,
			string(r.AttendanceType),
			r.Notes,
			at,
		).Scan(&r.ID)
		if err != nil {
			return fmt.Errorf("%s: member %d: %w", op, r.MemberID, mapError(err))
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE attendance_sessions SET
			status = $1,
			end_time = COALESCE(end_time, $2),
			finalized_at = $2
		WHERE id = $3`,
		string(models.SessionEnded), at, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// whereBuilder collects AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(cond string, v any) {
	b.conds = append(b.conds, fmt.Sprintf(cond, b.arg(v)))
}

func (b *whereBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}
