package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/models"
	"dojo-service/pkg/response"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) session(t *testing.T, classID int64, date string) int64 {
	t.Helper()

	session, err := f.svc.StartSession(context.Background(), 42, &api.SessionRequest{ClassID: classID, Date: date})
	require.NoError(t, err)

	return session.ID
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	classID := f.class(t, 1)

	session, err := f.svc.StartSession(ctx, 42, &api.SessionRequest{ClassID: classID, Date: "2024-03-01"})
	require.NoError(t, err)

	assert.Equal(t, "active", session.Status)
	assert.Equal(t, int64(42), session.InstructorID)
	assert.Equal(t, "2024-03-01", session.Date)
	assert.Equal(t, f.clock.t, session.StartTime)
	assert.Nil(t, session.EndTime)

	_, err = f.svc.StartSession(ctx, 42, &api.SessionRequest{ClassID: 999, Date: "2024-03-01"})
	assert.ErrorIs(t, err, response.ErrUnknownClass)

	_, err = f.svc.GetSession(ctx, 999)
	assert.ErrorIs(t, err, response.ErrSessionNotFound)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	classID := f.class(t, 1)
	memberID := f.member(t, "Sora")
	sessionID := f.session(t, classID, "2024-03-01")

	f.clock.set("2024-03-01T19:30:00Z")
	ended, err := f.svc.EndSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "ended", ended.Status)
	require.NotNil(t, ended.EndTime)
	firstEnd := *ended.EndTime

	f.clock.set("2024-03-01T20:00:00Z")
	again, err := f.svc.EndSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, firstEnd, *again.EndTime)

	_, err = f.svc.CheckIn(ctx, sessionID, memberID)
	assert.ErrorIs(t, err, response.ErrSessionNotActive)

	_, err = f.svc.EndSession(ctx, 999)
	assert.ErrorIs(t, err, response.ErrSessionNotFound)
}

func TestCheckInOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	classID := f.class(t, 1)
	memberID := f.member(t, "Sora")
	sessionID := f.session(t, classID, "2024-03-01")

	f.clock.set("2024-03-01T18:00:00Z")
	entry, err := f.svc.CheckIn(ctx, sessionID, memberID)
	require.NoError(t, err)
	assert.Equal(t, "present", entry.Status)
	assert.Nil(t, entry.CheckOutTime)

	_, err = f.svc.CheckIn(ctx, sessionID, memberID)
	assert.ErrorIs(t, err, response.ErrAlreadyCheckedIn)

	roster, err := f.svc.LiveRoster(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, roster.CheckedIn, 1)
	assert.Empty(t, roster.CheckedOut)

	f.clock.set("2024-03-01T19:00:00Z")
	out, err := f.svc.CheckOut(ctx, sessionID, memberID)
	require.NoError(t, err)
	assert.Equal(t, "left_early", out.Status)
	require.NotNil(t, out.CheckOutTime)

	_, err = f.svc.CheckOut(ctx, sessionID, memberID)
	assert.ErrorIs(t, err, response.ErrNotCheckedIn)

	roster, err = f.svc.LiveRoster(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, roster.CheckedIn)
	assert.Len(t, roster.CheckedOut, 1)

	// a member may come back after checking out
	f.clock.set("2024-03-01T19:10:00Z")
	_, err = f.svc.CheckIn(ctx, sessionID, memberID)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, sessionID, 999)
	assert.ErrorIs(t, err, response.ErrUnknownMember)

	_, err = f.svc.CheckOut(ctx, 999, memberID)
	assert.ErrorIs(t, err, response.ErrSessionNotFound)
}

func TestFinalizeSession(t *testing.T) {
	ctx := context.Background()

	t.Run("check-in and check-out become a live record", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1.5)
		memberID := f.member(t, "Mei")
		sessionID := f.session(t, classID, "2024-03-01")

		f.clock.set("2024-03-01T18:00:00Z")
		_, err := f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)

		f.clock.set("2024-03-01T19:15:00Z")
		_, err = f.svc.CheckOut(ctx, sessionID, memberID)
		require.NoError(t, err)

		result, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.RecordsProcessed)

		list, err := f.svc.ListAttendance(ctx, &api.AttendanceQuery{
			ClassID:  &classID,
			DateFrom: ptr("2024-03-01"),
			DateTo:   ptr("2024-03-01"),
		})
		require.NoError(t, err)
		require.Len(t, list, 1)

		rec := list[0]
		assert.Equal(t, memberID, rec.MemberID)
		assert.Equal(t, "live_update", rec.AttendanceType)
		assert.Equal(t, "left_early", rec.Status)
		assert.Equal(t, 1.25, rec.HoursAttended)
		require.NotNil(t, rec.Notes)
		assert.Equal(t, "Live session attendance", *rec.Notes)

		session, err := f.svc.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "ended", session.Status)
		assert.NotNil(t, session.FinalizedAt)
	})

	t.Run("open entries use class duration", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1.5)
		memberID := f.member(t, "Mei")
		sessionID := f.session(t, classID, "2024-03-01")

		_, err := f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)

		result, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, 1.5, result.Records[0].HoursAttended)
		assert.Equal(t, "present", result.Records[0].Status)
	})

	t.Run("finalizing twice keeps one record per member", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		first := f.member(t, "Mei")
		second := f.member(t, "Taro")
		sessionID := f.session(t, classID, "2024-03-01")

		for _, id := range []int64{first, second} {
			_, err := f.svc.CheckIn(ctx, sessionID, id)
			require.NoError(t, err)
		}

		_, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		again, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.RecordsProcessed)

		list, err := f.svc.ListAttendance(ctx, &api.AttendanceQuery{ClassID: &classID})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("latest entry wins for a returning member", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		memberID := f.member(t, "Mei")
		sessionID := f.session(t, classID, "2024-03-01")

		f.clock.set("2024-03-01T18:00:00Z")
		_, err := f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)
		f.clock.set("2024-03-01T18:30:00Z")
		_, err = f.svc.CheckOut(ctx, sessionID, memberID)
		require.NoError(t, err)
		f.clock.set("2024-03-01T18:45:00Z")
		_, err = f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)

		result, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, result.RecordsProcessed)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "present", result.Records[0].Status)
		assert.Equal(t, 1.0, result.Records[0].HoursAttended)
	})

	t.Run("overwrites a manual record", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		memberID := f.member(t, "Mei")

		manual, err := f.svc.CreateBackdatedAttendance(ctx, 1, &api.BackdateRequest{
			MemberID: memberID, ClassID: classID, Date: "2024-03-01", Status: "absent", AdjustmentReason: "pre-filled",
		})
		require.NoError(t, err)

		sessionID := f.session(t, classID, "2024-03-01")
		_, err = f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)

		result, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, manual.ID, result.Records[0].ID)

		rec, err := f.svc.GetAttendance(ctx, manual.ID)
		require.NoError(t, err)
		assert.Equal(t, "live_update", rec.AttendanceType)
		assert.Equal(t, "present", rec.Status)
		assert.Nil(t, rec.AdjustedBy)
		assert.Nil(t, rec.AdjustmentReason)
	})

	t.Run("empty session", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		sessionID := f.session(t, classID, "2024-03-01")

		result, err := f.svc.FinalizeSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Zero(t, result.RecordsProcessed)
		assert.Empty(t, result.Records)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.FinalizeSession(ctx, 999)
		assert.ErrorIs(t, err, response.ErrSessionNotFound)
	})

	t.Run("locked session", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		sessionID := f.session(t, classID, "2024-03-01")

		key := "session:" + itoa(sessionID) + ":finalize"
		ok, err := f.locker.Lock(ctx, key, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = f.svc.FinalizeSession(ctx, sessionID)
		assert.ErrorIs(t, err, response.ErrLocked)

		require.NoError(t, f.locker.Unlock(ctx, key))
		_, err = f.svc.FinalizeSession(ctx, sessionID)
		assert.NoError(t, err)
	})

	t.Run("store failure leaves nothing behind", func(t *testing.T) {
		f := newFixture(t)
		classID := f.class(t, 1)
		memberID := f.member(t, "Mei")
		sessionID := f.session(t, classID, "2024-03-01")

		_, err := f.svc.CheckIn(ctx, sessionID, memberID)
		require.NoError(t, err)

		errBoom := errors.New("connection reset")
		f.svc.store = failingFinalize{Store: f.store, err: errBoom}

		_, err = f.svc.FinalizeSession(ctx, sessionID)
		assert.ErrorIs(t, err, errBoom)

		f.svc.store = f.store

		list, err := f.svc.ListAttendance(ctx, &api.AttendanceQuery{})
		require.NoError(t, err)
		assert.Empty(t, list)

		session, err := f.svc.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "active", session.Status)
		assert.Nil(t, session.FinalizedAt)

		// the lock is released after a failure
		_, err = f.svc.FinalizeSession(ctx, sessionID)
		assert.NoError(t, err)
	})
}

type failingFinalize struct {
	Store
	err error
}

func (f failingFinalize) FinalizeSession(context.Context, int64, []*models.AttendanceRecord, time.Time) error {
	return f.err
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestSessionHours(t *testing.T) {
	in := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		out  *time.Time
		want float64
	}{
		{name: "open entry", out: nil, want: 1.5},
		{name: "seventy five minutes", out: ptr(in.Add(75 * time.Minute)), want: 1.25},
		{name: "rounded to two decimals", out: ptr(in.Add(20 * time.Minute)), want: 0.33},
		{name: "clamped to a day", out: ptr(in.Add(30 * time.Hour)), want: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &models.LiveAttendanceEntry{CheckInTime: in, CheckOutTime: tt.out}
			assert.Equal(t, tt.want, sessionHours(entry, 1.5))
		})
	}
}
