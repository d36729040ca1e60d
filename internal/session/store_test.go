package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)}
	st := NewStore(ttl)
	st.now = clock.Now
	return st, clock
}

func TestCreateGetDelete(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore(time.Minute)
	sess := st.Create(domain.FilterState{Departments: []string{"IT"}})
	require.NotEmpty(t, sess.ID)

	got, ok := st.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"IT"}, got.State().Departments)
	assert.Equal(t, 1, st.Len())

	assert.True(t, st.Delete(sess.ID))
	assert.False(t, st.Delete(sess.ID))
	_, ok = st.Get(sess.ID)
	assert.False(t, ok)
}

func TestUpdateKeepsStateOnError(t *testing.T) {
	t.Parallel()

	st, clock := newTestStore(time.Minute)
	sess := st.Create(domain.FilterState{})

	err := sess.Update(clock.Now(), func(cur domain.FilterState) (domain.FilterState, error) {
		cur.SelectedStatus = domain.TicketStatusOpen
		return cur, nil
	})
	require.NoError(t, err)

	boom := errors.New("rejected")
	err = sess.Update(clock.Now(), func(cur domain.FilterState) (domain.FilterState, error) {
		cur.SelectedStatus = domain.TicketStatusClosed
		return cur, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.TicketStatusOpen, sess.State().SelectedStatus)
}

func TestUpdatesAreSerialized(t *testing.T) {
	t.Parallel()

	st, clock := newTestStore(time.Minute)
	sess := st.Create(domain.FilterState{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Update(clock.Now(), func(cur domain.FilterState) (domain.FilterState, error) {
				cur.Departments = append([]string{}, cur.Departments...)
				cur.Departments = append(cur.Departments, "x")
				return cur, nil
			})
		}()
	}
	wg.Wait()

	assert.Len(t, sess.State().Departments, 100)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	st, clock := newTestStore(10 * time.Minute)
	idle := st.Create(domain.FilterState{})
	active := st.Create(domain.FilterState{})

	clock.Advance(8 * time.Minute)
	_, ok := st.Get(active.ID)
	require.True(t, ok)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, st.Sweep())

	_, ok = st.Get(idle.ID)
	assert.False(t, ok)
	_, ok = st.Get(active.ID)
	assert.True(t, ok)
}

func TestSweepDisabled(t *testing.T) {
	t.Parallel()

	st, clock := newTestStore(0)
	st.Create(domain.FilterState{})
	clock.Advance(24 * time.Hour)

	assert.Zero(t, st.Sweep())
	assert.Equal(t, 1, st.Len())
}

func TestSweepDoesNotWaitOnBusySession(t *testing.T) {
	t.Parallel()

	st, clock := newTestStore(time.Minute)
	busy := st.Create(domain.FilterState{})
	other := st.Create(domain.FilterState{})

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = busy.Update(clock.Now(), func(cur domain.FilterState) (domain.FilterState, error) {
			close(entered)
			<-release
			return cur, nil
		})
	}()
	<-entered
	defer close(release)

	swept := make(chan int, 1)
	go func() { swept <- st.Sweep() }()

	got := make(chan bool, 1)
	go func() {
		_, ok := st.Get(other.ID)
		got <- ok
	}()

	select {
	case ok := <-got:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Get on another session blocked behind a busy session")
	}
	select {
	case n := <-swept:
		assert.Zero(t, n)
	case <-time.After(time.Second):
		t.Fatal("Sweep blocked behind a busy session")
	}
}

func TestStateReturnsCopy(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore(time.Minute)
	sess := st.Create(domain.FilterState{Departments: []string{"IT"}})

	state := sess.State()
	state.Departments[0] = "HR"

	assert.Equal(t, []string{"IT"}, sess.State().Departments)
}
