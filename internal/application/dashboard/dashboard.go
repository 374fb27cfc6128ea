// Package dashboard wires the roster, homework and achievement stores together
// and performs the initial load from the remote rating endpoint.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mathclass/rating-hub/internal/application/homework"
	"github.com/mathclass/rating-hub/internal/application/roster"
	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
	"github.com/mathclass/rating-hub/pkg/timeutil"
)

// Remote is the rating endpoint as seen by the dashboard.
type Remote interface {
	roster.Persister
	FetchStudents(ctx context.Context) ([]student.Student, error)
	FetchAchievements(ctx context.Context) ([]achievement.Achievement, error)
}

// Options configures a Dashboard.
type Options struct {
	// Remote, when nil, makes the dashboard run on seed data only.
	Remote Remote

	Bus    shared.EventPublisher
	Logger *logger.Logger
	Clock  timeutil.Clock
}

// Dashboard is the composition root of the dashboard side.
type Dashboard struct {
	roster   *roster.Store
	homework *homework.Store
	remote   Remote
	bus      shared.EventPublisher
	logger   *logger.Logger

	mu      sync.RWMutex
	catalog *achievement.Catalog
	loaded  bool
}

// New builds the stores. Without a remote the seed class and default catalog are loaded immediately.
func New(opts Options) *Dashboard {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.SystemClock()
	}

	rosterOpts := roster.Options{Bus: opts.Bus, Logger: opts.Logger}
	if opts.Remote != nil {
		rosterOpts.Persister = opts.Remote
	}
	r := roster.NewStore(rosterOpts)

	d := &Dashboard{
		roster: r,
		homework: homework.NewStore(homework.Options{
			Roster: r,
			Bus:    opts.Bus,
			Logger: opts.Logger,
			Clock:  opts.Clock,
		}),
		remote:  opts.Remote,
		bus:     opts.Bus,
		logger:  opts.Logger.With(logger.Component("dashboard")),
		catalog: achievement.NewCatalog(nil),
	}

	d.homework.Seed(SeedHomework(opts.Clock.Now()))

	if opts.Remote == nil {
		d.roster.Load(SeedStudents())
		d.setCatalog(achievement.DefaultCatalog())
		d.loaded = true
	}

	return d
}

// Init fetches the roster and the catalog concurrently. Each successful fetch
// populates its store; a failed one is logged and leaves that store empty.
// The returned error joins every failure.
func (d *Dashboard) Init(ctx context.Context) error {
	if d.remote == nil {
		return nil
	}

	var (
		g               errgroup.Group
		studentsErr     error
		achievementsErr error
	)

	g.Go(func() error {
		students, err := d.remote.FetchStudents(ctx)
		if err != nil {
			studentsErr = err
			d.logger.Warn("failed to load roster", logger.Err(err))
			return err
		}
		d.roster.Load(students)
		return nil
	})

	g.Go(func() error {
		items, err := d.remote.FetchAchievements(ctx)
		if err != nil {
			achievementsErr = err
			d.logger.Warn("failed to load achievements", logger.Err(err))
			return err
		}
		d.setCatalog(achievement.NewCatalog(items))
		return nil
	})

	_ = g.Wait()

	err := errors.Join(studentsErr, achievementsErr)
	d.mu.Lock()
	d.loaded = err == nil
	d.mu.Unlock()

	if err == nil {
		d.logger.Info("dashboard initialised",
			logger.Int("students", d.roster.Len()),
			logger.Int("achievements", d.Catalog().Len()),
		)
	}
	return err
}

// Loaded reports whether both stores hold data from their source.
func (d *Dashboard) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Roster returns the roster store.
func (d *Dashboard) Roster() *roster.Store { return d.roster }

// Homework returns the homework store.
func (d *Dashboard) Homework() *homework.Store { return d.homework }

// Catalog returns the current achievement catalog.
func (d *Dashboard) Catalog() *achievement.Catalog {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

// BadgesFor resolves a student's achievement ids. Unknown ids are skipped.
func (d *Dashboard) BadgesFor(studentID int) []achievement.Achievement {
	s, ok := d.roster.Get(studentID)
	if !ok {
		return nil
	}
	return d.Catalog().Resolve(s.Achievements)
}

func (d *Dashboard) setCatalog(c *achievement.Catalog) {
	d.mu.Lock()
	d.catalog = c
	d.mu.Unlock()

	if d.bus != nil {
		if err := d.bus.Publish(shared.NewCatalogLoadedEvent(c.Len())); err != nil {
			d.logger.Warn("failed to publish event", logger.Err(err))
		}
	}
}
