// Package drafts keeps the editors of offers that have not been saved yet.
// Each draft owns one local-mode editor per line item kind and remembers the
// latest projection each editor reported; saving the offer consumes those
// projections.
package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"offerdesk/lineitems"
)

var ErrNotFound = errors.New("draft not found or expired")

// Draft is one unsaved offer.
type Draft struct {
	Token string

	editors map[*lineitems.Kind]*lineitems.Editor

	mu        sync.Mutex
	summaries map[*lineitems.Kind][]lineitems.GroupSummary
	lastSeen  time.Time
}

// Editor returns the draft's editor for kind, nil for an unknown kind.
func (d *Draft) Editor(kind *lineitems.Kind) *lineitems.Editor {
	return d.editors[kind]
}

// Summaries returns the last projection reported by the kind's editor.
func (d *Draft) Summaries(kind *lineitems.Kind) []lineitems.GroupSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summaries[kind]
}

func (d *Draft) record(kind *lineitems.Kind, s []lineitems.GroupSummary) {
	d.mu.Lock()
	d.summaries[kind] = s
	d.mu.Unlock()
}

func (d *Draft) touch(now time.Time) {
	d.mu.Lock()
	d.lastSeen = now
	d.mu.Unlock()
}

func (d *Draft) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

// Options configures a Registry.
type Options struct {
	TTL   time.Duration
	Kinds []*lineitems.Kind
	// Durations overrides the default group duration per kind.
	Durations map[*lineitems.Kind]int
	Observer  lineitems.Observer
	Logger    *zap.Logger
	Now       func() time.Time
}

// Registry holds drafts by token and expires idle ones.
type Registry struct {
	store lineitems.Store
	opts  Options
	log   *zap.Logger

	mu     sync.Mutex
	drafts map[string]*Draft

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(store lineitems.Store, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = []*lineitems.Kind{lineitems.Environments, lineitems.ServiceSets}
	}
	return &Registry{
		store:  store,
		opts:   opts,
		log:    opts.Logger.Named("drafts"),
		drafts: make(map[string]*Draft),
	}
}

// Create starts a draft and loads its editors' catalogs.
func (r *Registry) Create(ctx context.Context) (*Draft, error) {
	d := &Draft{
		Token:     uuid.NewString(),
		editors:   make(map[*lineitems.Kind]*lineitems.Editor, len(r.opts.Kinds)),
		summaries: make(map[*lineitems.Kind][]lineitems.GroupSummary, len(r.opts.Kinds)),
		lastSeen:  r.opts.Now(),
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range r.opts.Kinds {
		ed := lineitems.NewEditor(kind, r.store, lineitems.Options{
			OnChange:        func(s []lineitems.GroupSummary) { d.record(kind, s) },
			DefaultDuration: r.opts.Durations[kind],
			Logger:          r.opts.Logger,
			Observer:        r.opts.Observer,
			Now:             r.opts.Now,
		})
		d.editors[kind] = ed
		g.Go(func() error { return ed.Load(gctx) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.drafts[d.Token] = d
	r.mu.Unlock()
	r.log.Debug("draft created", zap.String("token", d.Token))
	return d, nil
}

// Get returns a live draft and marks it as used.
func (r *Registry) Get(token string) (*Draft, error) {
	r.mu.Lock()
	d, ok := r.drafts[token]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	d.touch(r.opts.Now())
	return d, nil
}

// Take removes a draft and hands it to the caller, who then owns it until
// it is discarded or put back with Restore. Only one caller can take a
// given token.
func (r *Registry) Take(token string) (*Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.drafts, token)
	return d, nil
}

// Restore puts back a draft obtained from Take.
func (r *Registry) Restore(d *Draft) {
	d.touch(r.opts.Now())
	r.mu.Lock()
	r.drafts[d.Token] = d
	r.mu.Unlock()
}

// Len returns the number of live drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

// Sweep removes drafts idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.opts.Now().Add(-r.opts.TTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for token, d := range r.drafts {
		if d.idleSince().Before(cutoff) {
			delete(r.drafts, token)
			n++
		}
	}
	if n > 0 {
		r.log.Info("expired drafts", zap.Int("count", n))
	}
	return n
}

// Start runs Sweep every interval until Close.
func (r *Registry) Start(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.janitor(interval, r.stop, r.done)
}

func (r *Registry) janitor(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Close stops the janitor and waits for it to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
