package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/sig-0/fxpoints/geo"
	"github.com/sig-0/fxpoints/provider/kurs"
	"github.com/sig-0/fxpoints/storage"
	"github.com/sig-0/fxpoints/workset"
)

var (
	// ErrTransient is returned when the listing could not be fetched.
	// The working set is left unchanged, and the call can be retried
	ErrTransient = errors.New("transient listing fetch failure")

	// ErrNoData is returned when the fetched listing yielded no outlets.
	// The working set is left unchanged, and the call can be retried
	ErrNoData = errors.New("listing contains no outlet data")

	ErrUnknownCity   = errors.New("unknown city")
	ErrUnknownOutlet = errors.New("unknown outlet")

	errInvalidProvider = errors.New("invalid provider")
	errInvalidCatalog  = errors.New("invalid city catalog")
)

const archiveTimeout = 30 * time.Second

// Orchestrator owns the city working sets, and is their only writer.
// It refreshes them on demand, and on a schedule for registered cities
type Orchestrator struct {
	storage  storage.Storage
	provider Provider
	catalog  *kurs.Catalog
	locator  geo.Locator
	logger   *slog.Logger

	// sets are keyed by the catalog city name, and never change after creation
	sets map[string]*workset.Set

	// patching is the single outlet refresh latch
	patching atomic.Bool

	// archives tracks the in-flight archive writes
	archives sync.WaitGroup

	registeredCities sync.Map // xid.ID -> *kurs.City

	q               iq.Queue[scheduledRefresh]
	queryInterval   time.Duration
	refreshInterval time.Duration
	retryDelay      time.Duration
	qMux            sync.Mutex
}

// New creates a new Orchestrator instance
func New(
	storage storage.Storage,
	provider Provider,
	catalog *kurs.Catalog,
	opts ...Option,
) (*Orchestrator, error) {
	if provider == nil || provider.Name() == "" {
		return nil, errInvalidProvider
	}

	if catalog == nil {
		return nil, errInvalidCatalog
	}

	o := &Orchestrator{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:         storage,
		provider:        provider,
		catalog:         catalog,
		sets:            make(map[string]*workset.Set),
		q:               iq.NewQueue[scheduledRefresh](),
		queryInterval:   time.Second,     // every second
		refreshInterval: time.Minute * 5, // every 5 minutes
		retryDelay:      time.Second * 10,
	}

	for _, city := range catalog.All() {
		o.sets[city.Name] = workset.New(city.Name)
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Catalog returns the supported city catalog
func (o *Orchestrator) Catalog() *kurs.Catalog {
	return o.catalog
}

// ResolveCity resolves the requested city name.
// An empty name falls back to the latest located city, and then to the default city
func (o *Orchestrator) ResolveCity(name string) (*kurs.City, error) {
	if strings.TrimSpace(name) != "" {
		city, ok := o.catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCity, name)
		}

		return city, nil
	}

	if o.locator != nil {
		if pos, ok := o.locator.Latest(); ok {
			if city, found := o.catalog.Lookup(pos.City); found {
				return city, nil
			}
		}
	}

	return o.catalog.Default(), nil
}

// Snapshot returns the current working set snapshot of the city
func (o *Orchestrator) Snapshot(city string) (*workset.Snapshot, error) {
	set, err := o.set(city)
	if err != nil {
		return nil, err
	}

	return set.Snapshot(), nil
}

// Subscribe registers for working set updates of the city.
// The returned function cancels the subscription
func (o *Orchestrator) Subscribe(city string) (<-chan *workset.Snapshot, func(), error) {
	set, err := o.set(city)
	if err != nil {
		return nil, nil, err
	}

	ch, cancel := set.Subscribe()

	return ch, cancel, nil
}

// RefreshAll fetches the full city listing, and replaces the city working set
// with the decoded outlets
func (o *Orchestrator) RefreshAll(ctx context.Context, cityName string) (*Result, error) {
	city, err := o.ResolveCity(cityName)
	if err != nil {
		return nil, err
	}

	report, err := o.provider.Fetch(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	return o.apply(ctx, city, report)
}

// RefreshOne refreshes the quotes of a single outlet.
// The listing source has no single outlet query, so the whole city listing is fetched,
// and only the matching outlet quotes and actual time are updated.
// A call made while another one is in flight is a no-op, and yields PatchBusy
func (o *Orchestrator) RefreshOne(ctx context.Context, id string) (PatchOutcome, error) {
	city, ok := o.cityOf(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOutlet, id)
	}

	if !o.patching.CompareAndSwap(false, true) {
		return PatchBusy, nil
	}

	defer o.patching.Store(false)

	report, err := o.provider.Fetch(ctx, city)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransient, err)
	}

	// Nothing to match against, the outlet can't be presumed missing
	if len(report.Outlets) == 0 {
		return "", ErrNoData
	}

	for _, fresh := range report.Outlets {
		if fresh.ID != id {
			continue
		}

		if !o.sets[city.Name].PatchOne(id, fresh.Quotes, fresh.ActualTime) {
			// The outlet left the working set while fetching
			return PatchNotFound, nil
		}

		o.logger.Info(
			"refreshed outlet",
			"id", id,
			"city", city.Name,
			"quotes", len(fresh.Quotes),
		)

		return PatchApplied, nil
	}

	o.logger.Warn(
		"outlet missing from the fresh listing",
		"id", id,
		"city", city.Name,
	)

	return PatchNotFound, nil
}

// apply reconciles the fetched listing into the city working set
func (o *Orchestrator) apply(
	ctx context.Context,
	city *kurs.City,
	report *kurs.Report,
) (*Result, error) {
	set := o.sets[city.Name]

	// No script content at all
	if report.Scripts == 0 {
		return nil, fmt.Errorf("%w: no script content", ErrNoData)
	}

	result := &Result{
		City:           city.Name,
		Status:         StatusComplete,
		Literals:       report.Literals,
		FailedLiterals: report.FailedLiterals,
		Dropped:        report.Dropped,
	}

	// No literals, keep the last known good set
	if report.Literals == 0 {
		current := set.Snapshot()
		if !current.Loaded() {
			return nil, fmt.Errorf("%w: no outlet literals", ErrNoData)
		}

		o.logger.Warn(
			"no outlet literals found, keeping the current set",
			"city", city.Name,
		)

		result.Status = StatusDegraded
		result.Outlets = current.Outlets
		result.Version = current.Version
		result.UpdatedAt = current.UpdatedAt

		return result, nil
	}

	if len(report.Outlets) == 0 {
		return nil, fmt.Errorf(
			"%w: %d literals, %d failed",
			ErrNoData,
			report.Literals,
			report.FailedLiterals,
		)
	}

	if report.Degraded() {
		result.Status = StatusDegraded
	}

	snap := set.ReplaceAll(report.Outlets)

	result.Outlets = snap.Outlets
	result.Version = snap.Version
	result.UpdatedAt = snap.UpdatedAt

	o.logger.Info(
		"refreshed city",
		"city", city.Name,
		"outlets", snap.Len(),
		"status", result.Status,
		"literals", report.Literals,
		"failed_literals", report.FailedLiterals,
		"dropped", report.Dropped,
	)

	// The snapshot is immutable, so it's archived in the background
	o.archives.Add(1)

	go func() {
		defer o.archives.Done()

		o.archive(ctx, city, snap.Outlets, report.FetchedAt)
	}()

	return result, nil
}

// Register registers a city for scheduled refreshes.
// The city is immediately queued up for a refresh
func (o *Orchestrator) Register(cityName string) error {
	city, ok := o.catalog.Lookup(cityName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCity, cityName)
	}

	// Register the city
	id := xid.New()
	o.registeredCities.Store(id, city)

	o.logger.Info(
		"registered city refresh",
		"city", city.Name,
		"provider", o.provider.Name(),
	)

	// Schedule the job
	o.scheduleRefresh(
		time.Now().UTC(),
		id,
		city,
	)

	return nil
}

// Start starts the scheduled refresh service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleRefresh initializes all jobs that are executable (due)
	handleRefresh := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := o.nextRefresh()
				if next == nil {
					return // nothing to schedule anymore
				}

				o.logger.Debug(
					"scheduling refresh",
					"city", next.city.Name,
				)

				// Spawn worker
				info := &workerInfo{
					provider: o.provider,
					city:     next.city,
					jobID:    next.jobID,
					resCh:    collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due jobs (on boot)
	handleRefresh()

	for {
		select {
		case <-ctx.Done():
			// Let the pending archive writes finish
			o.archives.Wait()

			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleRefresh()
		case response := <-collectorCh:
			cityRaw, ok := o.registeredCities.Load(response.jobID)
			if !ok {
				o.logger.Error(
					"unable to load registered city",
					"id", response.jobID.String(),
				)

				continue
			}

			city, _ := cityRaw.(*kurs.City)

			err := response.error
			if err == nil {
				_, err = o.apply(ctx, city, response.report)
			}

			now := time.Now().UTC()

			if err != nil {
				o.logger.Error(
					"unable to refresh city",
					"city", city.Name,
					"id", response.jobID.String(),
					"err", err,
				)

				// Retry the refresh soon
				o.scheduleRefresh(
					now.Add(o.retryDelay),
					response.jobID,
					city,
				)

				continue
			}

			// Schedule the next refresh for this city
			o.scheduleRefresh(
				now.Add(o.refreshInterval),
				response.jobID,
				city,
			)
		}
	}
}

// set returns the working set of the resolved city
func (o *Orchestrator) set(cityName string) (*workset.Set, error) {
	city, err := o.ResolveCity(cityName)
	if err != nil {
		return nil, err
	}

	return o.sets[city.Name], nil
}

// cityOf finds the city whose working set holds the outlet
func (o *Orchestrator) cityOf(id string) (*kurs.City, bool) {
	for _, city := range o.catalog.All() {
		if _, ok := o.sets[city.Name].Snapshot().Get(id); ok {
			return city, true
		}
	}

	return nil, false
}

// scheduleRefresh schedules a new city refresh
func (o *Orchestrator) scheduleRefresh(
	at time.Time,
	jobID xid.ID,
	city *kurs.City,
) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledRefresh{
		at:    at,
		jobID: jobID,
		city:  city,
	})
}

// nextRefresh fetches the next due refresh job, as of the moment of calling
func (o *Orchestrator) nextRefresh() *scheduledRefresh {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, next job is in the future
	}

	return o.q.PopFront()
}
