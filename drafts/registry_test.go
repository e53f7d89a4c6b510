package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"offerdesk/lineitems"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore() *lineitems.MemoryStore {
	s := lineitems.NewMemoryStore()
	s.Seed("license_pricing", map[string]any{"name": "App Server", "type": "Shared", "size": "Small", "monthly_price": 100})
	s.Seed("service_catalog", map[string]any{"service_name": "Integration", "manday_rate": 500})
	return s
}

func TestCreateRecordsSummaries(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	reg := NewRegistry(store, Options{
		TTL:       time.Hour,
		Durations: map[*lineitems.Kind]int{lineitems.Environments: 36},
	})

	d, err := reg.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, d.Token)

	env := d.Editor(lineitems.Environments)
	require.NotNil(t, env)
	assert.False(t, env.Remote())

	g, err := env.AddGroup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 36, g.Attrs.DurationMonths)
	_, err = env.AddItem(ctx, g.ID, lineitems.ItemInput{Selection: lineitems.Selection{"App Server", "Shared", "Small"}, Quantity: 2})
	require.NoError(t, err)

	sums := d.Summaries(lineitems.Environments)
	require.Len(t, sums, 1)
	assert.Equal(t, 200.0, sums[0].MonthlyTotal)
	assert.Equal(t, 7200.0, sums[0].GrandTotal)
	assert.Empty(t, d.Summaries(lineitems.ServiceSets))
	assert.Empty(t, store.Calls())

	got, err := reg.Get(d.Token)
	require.NoError(t, err)
	assert.Same(t, d, got)

	taken, err := reg.Take(d.Token)
	require.NoError(t, err)
	assert.Same(t, d, taken)
	_, err = reg.Get(d.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTakeClaimsDraftOnce(t *testing.T) {
	reg := NewRegistry(newStore(), Options{TTL: time.Hour})
	d, err := reg.Create(context.Background())
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Take(d.Token); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
	assert.Zero(t, reg.Len())

	reg.Restore(d)
	got, err := reg.Get(d.Token)
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestCreateFailsWhenCatalogUnavailable(t *testing.T) {
	store := newStore()
	store.FailOn("query", "service_catalog", errors.New("down"))
	reg := NewRegistry(store, Options{TTL: time.Hour})

	_, err := reg.Create(context.Background())
	var fetchErr *lineitems.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, reg.Len())
}

func TestSweepExpiresIdleDrafts(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := NewRegistry(newStore(), Options{TTL: 30 * time.Minute, Now: clk.Now})

	idle, err := reg.Create(context.Background())
	require.NoError(t, err)
	busy, err := reg.Create(context.Background())
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	_, err = reg.Get(busy.Token)
	require.NoError(t, err)
	clk.Advance(20 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	_, err = reg.Get(idle.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reg.Get(busy.Token)
	assert.NoError(t, err)
}

func TestJanitorStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry(newStore(), Options{TTL: time.Minute})
	reg.Start(time.Millisecond)
	reg.Start(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	reg.Close()
	reg.Close()
}
