package service

import (
	"context"
	"dojo-service/api"
	"dojo-service/internal/lock"
	"dojo-service/internal/storage/memory"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) set(raw string) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	c.t = t
}

type fixture struct {
	svc    *Service
	store  *memory.Storage
	locker *lock.LocalLock
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	locker := lock.NewLocalLock()
	c := &clock{}
	c.set("2024-01-10T12:00:00Z")

	svc := NewService(store, locker, Config{MaxPageSize: 50, FinalizeLockTTL: time.Minute})
	svc.now = c.now

	return &fixture{svc: svc, store: store, locker: locker, clock: c}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) class(t *testing.T, hours float64) int64 {
	t.Helper()

	class, err := f.svc.CreateClass(context.Background(), &api.ClassRequest{
		Name:          "Karate Fundamentals",
		InstructorID:  42,
		DayOfWeek:     "wednesday",
		StartTime:     "18:00",
		EndTime:       "19:30",
		DurationHours: ptr(hours),
	})
	require.NoError(t, err)

	return class.ID
}

func (f *fixture) member(t *testing.T, first string) int64 {
	t.Helper()

	member, err := f.svc.CreateMember(context.Background(), &api.MemberRequest{
		FirstName: first,
		LastName:  "Tanaka",
	})
	require.NoError(t, err)

	return member.ID
}
