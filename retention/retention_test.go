package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/mtstation/station"
)

func TestDecide(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.Local)
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	freeUntil := func(d time.Duration) Discount {
		return Discount{Tracked: true, Detail: true, End: now.Add(d)}
	}

	tests := []struct {
		name     string
		task     station.Task
		discount Discount
		want     Decision
	}{
		{
			name: "downloading without pieces for over an hour",
			task: station.Task{Status: station.StatusDownloading, Created: ago(3601 * time.Second)},
			want: Decision{Action: ActionDelete, Reason: ReasonStalled, Purge: true},
		},
		{
			name: "downloading without pieces exactly one hour",
			task: station.Task{Status: station.StatusDownloading, Created: ago(time.Hour)},
			want: Decision{Action: ActionKeep, Reason: ReasonUntracked},
		},
		{
			name: "started time preferred over created",
			task: station.Task{Status: station.StatusDownloading, Created: ago(5 * time.Hour), Started: ago(10 * time.Minute)},
			want: Decision{Action: ActionKeep, Reason: ReasonUntracked},
		},
		{
			name: "downloading without pieces or timestamps",
			task: station.Task{Status: station.StatusDownloading},
			want: Decision{Action: ActionDelete, Reason: ReasonStalled, Purge: true},
		},
		{
			name: "downloading with pieces is not stalled",
			task: station.Task{Status: station.StatusDownloading, Created: ago(5 * time.Hour), Downloaded: 10},
			want: Decision{Action: ActionKeep, Reason: ReasonUntracked},
		},
		{
			name:     "downloading with null info",
			task:     station.Task{Status: station.StatusDownloading, Started: ago(time.Minute), Downloaded: 1},
			discount: Discount{Tracked: true},
			want:     Decision{Action: ActionDelete, Reason: ReasonNoInfo, Purge: true},
		},
		{
			name:     "downloading without discount end",
			task:     station.Task{Status: station.StatusDownloading, Started: ago(time.Minute), Downloaded: 1},
			discount: Discount{Tracked: true, Detail: true},
			want:     Decision{Action: ActionDelete, Reason: ReasonNoEndTime, Purge: true},
		},
		{
			name:     "downloading with discount ending soon",
			task:     station.Task{Status: station.StatusDownloading, Started: ago(time.Minute), Downloaded: 1},
			discount: freeUntil(4 * time.Minute),
			want:     Decision{Action: ActionDelete, Reason: ReasonDiscountExpiring, Purge: true},
		},
		{
			name:     "downloading with discount already ended",
			task:     station.Task{Status: station.StatusDownloading, Started: ago(time.Minute), Downloaded: 1},
			discount: freeUntil(-time.Hour),
			want:     Decision{Action: ActionDelete, Reason: ReasonDiscountExpiring, Purge: true},
		},
		{
			name:     "downloading with discount ending later",
			task:     station.Task{Status: station.StatusDownloading, Started: ago(time.Minute), Downloaded: 1},
			discount: freeUntil(6 * time.Minute),
			want:     Decision{Action: ActionKeep, Reason: ReasonActive},
		},
		{
			name:     "waiting after completion",
			task:     station.Task{Status: station.StatusWaiting, Completed: ago(time.Hour)},
			discount: Discount{Tracked: true},
			want:     Decision{Action: ActionKeep, Reason: ReasonCompleted},
		},
		{
			name:     "waiting with expiring discount",
			task:     station.Task{Status: station.StatusWaiting},
			discount: freeUntil(time.Minute),
			want:     Decision{Action: ActionDelete, Reason: ReasonDiscountExpiring, Purge: true},
		},
		{
			name: "waiting untracked",
			task: station.Task{Status: station.StatusWaiting},
			want: Decision{Action: ActionKeep, Reason: ReasonUntracked},
		},
		{
			name: "error is resumed",
			task: station.Task{Status: station.StatusError},
			want: Decision{Action: ActionResume, Reason: ReasonError},
		},
		{
			name: "seeding for over a week",
			task: station.Task{Status: station.StatusSeeding, Completed: ago(7*24*time.Hour + time.Second)},
			want: Decision{Action: ActionDelete, Reason: ReasonSeeded, Purge: true},
		},
		{
			name: "seeding for less than a week",
			task: station.Task{Status: station.StatusSeeding, Completed: ago(6 * 24 * time.Hour)},
			want: Decision{Action: ActionKeep, Reason: ReasonActive},
		},
		{
			name: "seeding without completion time",
			task: station.Task{Status: station.StatusSeeding},
			want: Decision{Action: ActionKeep, Reason: ReasonActive},
		},
		{
			name:     "other status is kept",
			task:     station.Task{Status: station.StatusOther, Created: ago(48 * time.Hour)},
			discount: Discount{Tracked: true},
			want:     Decision{Action: ActionKeep, Reason: ReasonActive},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.task, tt.discount, now))
		})
	}
}

func TestPolicyThresholds(t *testing.T) {
	now := time.Now()
	p := Policy{StallTimeout: time.Minute, ExpiryMargin: time.Hour, SeedPeriod: time.Hour}

	stalled := p.Decide(station.Task{Status: station.StatusDownloading, Created: now.Add(-2 * time.Minute)}, Discount{}, now)
	assert.Equal(t, ReasonStalled, stalled.Reason)

	expiring := p.Decide(station.Task{Status: station.StatusWaiting},
		Discount{Tracked: true, Detail: true, End: now.Add(30 * time.Minute)}, now)
	assert.Equal(t, ReasonDiscountExpiring, expiring.Reason)

	seeded := p.Decide(station.Task{Status: station.StatusSeeding, Completed: now.Add(-2 * time.Hour)}, Discount{}, now)
	assert.Equal(t, ReasonSeeded, seeded.Reason)
}
