package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/season"
	"github.com/okian/reto/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

var abc = []model.Participant{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}

// startService runs a service over a fresh memory store until the test ends.
func startService(t *testing.T, store repository.Store, opts ...service.Option) *service.Service {
	t.Helper()
	if store == nil {
		store = repository.NewMemoryStore()
	}
	svc := service.New(store, opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	if err := svc.WaitReady(ctx); err != nil {
		t.Fatalf("service never became ready: %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Stop(context.Background())
	})
	return svc
}

// eventually polls cond until it holds or two seconds pass.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// createSeason queues a season and waits until the read model has it.
func createSeason(t *testing.T, svc *service.Service, sess *service.Session, d season.Draft) model.Season {
	t.Helper()
	s, err := sess.CreateSeason(context.Background(), d)
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	if !eventually(func() bool { _, ok := model.FindSeason(svc.Seasons(), s.ID); return ok }) {
		t.Fatalf("season %s never showed up", s.ID)
	}
	return s
}

// waitRoster waits until the roster has n participants.
func waitRoster(t *testing.T, svc *service.Service, n int) {
	t.Helper()
	if !eventually(func() bool { return len(svc.Participants()) == n }) {
		t.Fatalf("roster never reached %d participants, have %v", n, svc.Participants())
	}
}

// historyLen is the number of events the session sees, -1 without an active season.
func historyLen(sess *service.Session) int {
	h, err := sess.History("")
	if err != nil {
		return -1
	}
	return len(h)
}

func limit(v float64) *float64 { return &v }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
