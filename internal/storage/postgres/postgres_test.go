package postgres

import (
	"errors"
	"fmt"
	"testing"

	"dojo-service/pkg/response"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "duplicate attendance",
			err:  &pq.Error{Code: uniqueViolation, Constraint: attendanceKeyConstraint},
			want: response.ErrDuplicateRecord,
		},
		{
			name: "second open entry",
			err:  fmt.Errorf("wrapped: %w", &pq.Error{Code: uniqueViolation, Constraint: openEntryConstraint}),
			want: response.ErrAlreadyCheckedIn,
		},
		{
			name: "unknown member",
			err:  &pq.Error{Code: foreignKeyViolation, Constraint: "attendance_member_id_fkey"},
			want: response.ErrUnknownMember,
		},
		{
			name: "unknown class",
			err:  &pq.Error{Code: foreignKeyViolation, Constraint: "attendance_sessions_class_id_fkey"},
			want: response.ErrUnknownClass,
		},
		{
			name: "unknown session",
			err:  &pq.Error{Code: foreignKeyViolation, Constraint: "live_attendance_session_id_fkey"},
			want: response.ErrSessionNotFound,
		},
		{
			name: "other constraint is passed through",
			err:  &pq.Error{Code: "23514", Constraint: "attendance_hours_attended_check"},
		},
		{
			name: "non postgres error",
			err:  plain,
			want: plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want == nil {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestWhereBuilder(t *testing.T) {
	var b whereBuilder
	assert.Equal(t, "", b.where())

	b.add("member_id = %s", int64(7))
	b.add("status = %s", "present")
	limit := b.arg(100)

	assert.Equal(t, " WHERE member_id = $1 AND status = $2", b.where())
	assert.Equal(t, "$3", limit)
	assert.Equal(t, []any{int64(7), "present", 100}, b.args)
}
