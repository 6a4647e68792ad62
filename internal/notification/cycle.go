// Package notification implements the overpass-notification engine: the
// periodic cycle that walks notify-enabled locations, asks the acquisition
// API for upcoming passes, and emails each owner about the soonest one.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/alenva214/Space-app/internal/acquisition"
	"github.com/alenva214/Space-app/internal/location"
	"github.com/alenva214/Space-app/internal/metrics"
)

// Outcome classifies what happened to one location during a cycle run.
type Outcome string

const (
	OutcomeNotified       Outcome = "notified"
	OutcomeNoPass         Outcome = "no_pass"
	OutcomeAuthFailed     Outcome = "auth_failed"
	OutcomeQueryFailed    Outcome = "query_failed"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeMissingOwner   Outcome = "missing_owner"
)

// Result is the per-location record of a cycle run. Err is nil for
// OutcomeNotified and OutcomeNoPass.
type Result struct {
	LocationID   uint
	LocationName string
	Outcome      Outcome
	Overpass     time.Time
	Err          error
}

// TargetLister loads every notify-enabled location joined with its owner's
// email address.
type TargetLister interface {
	ListNotifyEnabled() ([]location.Target, error)
}

// OverpassSource predicts passes over a coordinate within a window, keeping
// only scenes at or below the given cloud-cover percentage. Results are
// ordered ascending by time.
type OverpassSource interface {
	OverpassesBelowCloud(ctx context.Context, lat, lon float64, w acquisition.Window, maxCloud float64) ([]acquisition.Overpass, error)
}

// Dispatcher hands a rendered overpass alert to the mail transport.
type Dispatcher interface {
	Notify(recipientEmail, locationName string, passTime time.Time) error
}

// Cycle runs one notification pass over all notify-enabled locations.
// Locations are read-only to the cycle; the only side effects are mail
// handoffs, metrics and logs.
type Cycle struct {
	store      TargetLister
	source     OverpassSource
	dispatcher Dispatcher
	timeout    time.Duration

	now func() time.Time
}

func NewCycle(store TargetLister, source OverpassSource, dispatcher Dispatcher, timeout time.Duration) *Cycle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Cycle{
		store:      store,
		source:     source,
		dispatcher: dispatcher,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Window computes the notification window for a location: it opens lead-time
// hours from now and spans exactly 24 hours.
func Window(now time.Time, leadTimeHours int) acquisition.Window {
	start := now.Add(time.Duration(leadTimeHours) * time.Hour)
	return acquisition.Window{Start: start, End: start.Add(24 * time.Hour)}
}

// Run evaluates every notify-enabled location once and returns one Result
// per location. A failure for one location never stops the others; only a
// failure to load the location list aborts the run.
func (c *Cycle) Run(ctx context.Context) ([]Result, error) {
	targets, err := c.store.ListNotifyEnabled()
	if err != nil {
		return nil, fmt.Errorf("list notify-enabled locations: %w", err)
	}

	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		res := c.evaluate(ctx, t)
		c.record(res)
		results = append(results, res)
	}

	metrics.CyclesTotal.Inc()
	return results, nil
}

func (c *Cycle) evaluate(ctx context.Context, t location.Target) Result {
	res := Result{LocationID: t.ID, LocationName: t.Name}

	if t.OwnerEmail == "" {
		res.Outcome = OutcomeMissingOwner
		res.Err = fmt.Errorf("location %d references missing user %d", t.ID, t.UserID)
		return res
	}

	w := Window(c.now(), t.NotificationLeadTime)

	// A hanging upstream call must not stall the rest of the cycle.
	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	passes, err := c.source.OverpassesBelowCloud(qctx, t.Latitude, t.Longitude, w, t.CloudCoverageThreshold)
	if err != nil {
		if errors.Is(err, acquisition.ErrAuth) {
			res.Outcome = OutcomeAuthFailed
		} else {
			res.Outcome = OutcomeQueryFailed
		}
		res.Err = err
		return res
	}

	if len(passes) == 0 {
		res.Outcome = OutcomeNoPass
		return res
	}

	next := earliest(passes)
	res.Overpass = next.Time

	if err := c.dispatcher.Notify(t.OwnerEmail, t.Name, next.Time); err != nil {
		res.Outcome = OutcomeDeliveryFailed
		res.Err = err
		return res
	}

	res.Outcome = OutcomeNotified
	return res
}

// earliest picks the soonest candidate. The client already sorts ascending,
// but the choice must not depend on it; on equal instants the first in
// returned order wins.
func earliest(passes []acquisition.Overpass) acquisition.Overpass {
	best := passes[0]
	for _, p := range passes[1:] {
		if p.Time.Before(best.Time) {
			best = p
		}
	}
	return best
}

func (c *Cycle) record(res Result) {
	fields := log.Fields{
		"location_id": res.LocationID,
		"location":    res.LocationName,
		"outcome":     string(res.Outcome),
	}

	switch res.Outcome {
	case OutcomeNotified:
		metrics.NotificationsSent.Inc()
		log.WithFields(fields).WithField("overpass", res.Overpass).Info("overpass notification sent")
	case OutcomeNoPass:
		log.WithFields(fields).Debug("no qualifying overpass in window")
	default:
		metrics.LocationsSkipped.WithLabelValues(string(res.Outcome)).Inc()
		log.WithFields(fields).WithError(res.Err).Warn("location skipped this cycle")
	}
}
