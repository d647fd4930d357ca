// Package retention decides which station tasks to keep, delete or resume.
//
// A task is deleted when it never started downloading, when its free
// download window is about to close (or cannot be confirmed), or once it
// has seeded long enough. Failed tasks are resumed.
package retention

import (
	"time"

	"github.com/s0up4200/mtstation/station"
)

// Action is what should happen to a task
type Action string

const (
	ActionKeep   Action = "keep"
	ActionDelete Action = "delete"
	ActionResume Action = "resume"
)

// Reasons attached to decisions
const (
	ReasonStalled          = "stalled"
	ReasonCompleted        = "completed"
	ReasonNoInfo           = "no-info"
	ReasonNoEndTime        = "no-endtime"
	ReasonDiscountExpiring = "discount-expiring"
	ReasonError            = "error"
	ReasonSeeded           = "seeded"
	ReasonUntracked        = "untracked"
	ReasonActive           = "active"
)

// Decision is the outcome for a single task
type Decision struct {
	Action Action
	Reason string
	// Purge removes the local .info and .torrent.loaded files of the task
	Purge bool
}

// Discount describes the local .info record of a task
type Discount struct {
	// Tracked is set when an .info file exists for the task
	Tracked bool
	// Detail is set when the file holds a record rather than null
	Detail bool
	// End is the end of the discount window, zero when there is none
	End time.Time
}

// Policy holds the retention thresholds
type Policy struct {
	// StallTimeout is how long a download may go without a single piece
	StallTimeout time.Duration
	// ExpiryMargin is how close to the end of the discount window a
	// download is abandoned
	ExpiryMargin time.Duration
	// SeedPeriod is how long a completed torrent is seeded
	SeedPeriod time.Duration
}

// DefaultPolicy returns the standard thresholds: one hour to start, five
// minutes of discount margin and seven days of seeding
func DefaultPolicy() Policy {
	return Policy{
		StallTimeout: time.Hour,
		ExpiryMargin: 5 * time.Minute,
		SeedPeriod:   7 * 24 * time.Hour,
	}
}

// Decide applies the default policy
func Decide(task station.Task, d Discount, now time.Time) Decision {
	return DefaultPolicy().Decide(task, d, now)
}

// Decide returns the action for task given its discount record. It is a
// pure function of its inputs.
func (p Policy) Decide(task station.Task, d Discount, now time.Time) Decision {
	switch task.Status {
	case station.StatusDownloading:
		// Without any timestamp the task counts as stalled
		start := task.StartedOrCreated()
		if task.Downloaded == 0 && now.Sub(start) > p.StallTimeout {
			return deleteFor(ReasonStalled)
		}
		return p.decideDiscount(d, now)

	case station.StatusWaiting:
		// Completed once, then reverted to waiting
		if !task.Completed.IsZero() {
			return Decision{Action: ActionKeep, Reason: ReasonCompleted}
		}
		return p.decideDiscount(d, now)

	case station.StatusError:
		return Decision{Action: ActionResume, Reason: ReasonError}

	case station.StatusSeeding:
		if !task.Completed.IsZero() && now.Sub(task.Completed) > p.SeedPeriod {
			return deleteFor(ReasonSeeded)
		}
	}

	return Decision{Action: ActionKeep, Reason: ReasonActive}
}

func (p Policy) decideDiscount(d Discount, now time.Time) Decision {
	switch {
	case !d.Tracked:
		return Decision{Action: ActionKeep, Reason: ReasonUntracked}
	case !d.Detail:
		return deleteFor(ReasonNoInfo)
	case d.End.IsZero():
		return deleteFor(ReasonNoEndTime)
	case d.End.Sub(now) < p.ExpiryMargin:
		return deleteFor(ReasonDiscountExpiring)
	}
	return Decision{Action: ActionKeep, Reason: ReasonActive}
}

func deleteFor(reason string) Decision {
	return Decision{Action: ActionDelete, Reason: reason, Purge: true}
}
