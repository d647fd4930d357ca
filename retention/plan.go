package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/mtstation/artifacts"
	"github.com/s0up4200/mtstation/station"
)

// Item is a task with its decision
type Item struct {
	Task     station.Task
	Decision Decision
}

// Plan holds the decisions for every listed task
type Plan struct {
	Items []Item
}

// Deletes returns the items to delete
func (p Plan) Deletes() []Item {
	return p.filter(ActionDelete)
}

// Resumes returns the items to resume
func (p Plan) Resumes() []Item {
	return p.filter(ActionResume)
}

func (p Plan) filter(action Action) []Item {
	var items []Item
	for _, it := range p.Items {
		if it.Decision.Action == action {
			items = append(items, it)
		}
	}
	return items
}

// Log writes the tasks to delete and resume at info level
func (p Plan) Log(logger zerolog.Logger) {
	if deletes := p.Deletes(); len(deletes) > 0 {
		logger.Info().Msg("Tasks to delete:")
		for _, it := range deletes {
			logger.Info().Str("reason", it.Decision.Reason).Msgf("  %s: %s", it.Task.ID, it.Task.Title)
		}
	}
	if resumes := p.Resumes(); len(resumes) > 0 {
		logger.Info().Msg("Tasks to resume:")
		for _, it := range resumes {
			logger.Info().Msgf("  %s: %s", it.Task.ID, it.Task.Title)
		}
	}
}

// Result reports what Execute did
type Result struct {
	Deleted int
	Resumed int
	Purged  int
}

// Planner builds and executes retention plans
type Planner struct {
	policy Policy
	dir    *artifacts.Dir
	logger zerolog.Logger
	now    func() time.Time
}

// NewPlanner creates a planner reading .info files from dir
func NewPlanner(policy Policy, dir *artifacts.Dir, logger zerolog.Logger) *Planner {
	return &Planner{
		policy: policy,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// BuildPlan decides the action of every task
func (p *Planner) BuildPlan(tasks []station.Task) Plan {
	now := p.now()
	plan := Plan{Items: make([]Item, 0, len(tasks))}

	for _, task := range tasks {
		var d Discount
		if task.Status == station.StatusDownloading || task.Status == station.StatusWaiting {
			d = p.discount(task.TID)
		}

		decision := p.policy.Decide(task, d, now)
		p.logger.Debug().
			Str("tid", task.TID).
			Str("task", task.ID).
			Str("status", task.Raw).
			Str("action", string(decision.Action)).
			Str("reason", decision.Reason).
			Msg(task.Title)

		plan.Items = append(plan.Items, Item{Task: task, Decision: decision})
	}

	return plan
}

// discount reads the .info record of tid. An unreadable record is treated
// as untracked so the task is kept.
func (p *Planner) discount(tid string) Discount {
	if tid == "" {
		return Discount{}
	}

	detail, err := p.dir.ReadInfo(tid)
	if errors.Is(err, artifacts.ErrNoInfo) {
		return Discount{}
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("tid", tid).Msg("Failed to read info file, keeping task")
		return Discount{}
	}
	if detail == nil {
		return Discount{Tracked: true}
	}

	end, _, err := detail.DiscountEnd()
	if err != nil {
		p.logger.Warn().Err(err).Str("tid", tid).Msg("Failed to parse discount end time, keeping task")
		return Discount{}
	}

	return Discount{Tracked: true, Detail: true, End: end}
}

// Execute applies the plan with one delete and one resume call, then purges
// the local files of deleted tasks. Nothing is changed in dry-run mode.
func (p *Planner) Execute(ctx context.Context, st station.Station, plan Plan, dryRun bool) (Result, error) {
	var result Result

	deletes := plan.Deletes()
	resumes := plan.Resumes()

	if dryRun {
		p.logger.Info().
			Int("delete", len(deletes)).
			Int("resume", len(resumes)).
			Msg("Dry run, no tasks changed")
		return result, nil
	}

	var errs []error

	if len(deletes) > 0 {
		ids := make([]string, 0, len(deletes))
		for _, it := range deletes {
			ids = append(ids, it.Task.ID)
		}

		if err := st.DeleteTasks(ctx, ids); err != nil {
			errs = append(errs, err)
		} else {
			result.Deleted = len(ids)
			for _, it := range deletes {
				if !it.Decision.Purge || it.Task.TID == "" {
					continue
				}
				if err := p.dir.Purge(it.Task.TID); err != nil {
					p.logger.Error().Err(err).Str("tid", it.Task.TID).Msg("Failed to purge local files")
					continue
				}
				result.Purged++
			}
		}
	}

	if len(resumes) > 0 {
		ids := make([]string, 0, len(resumes))
		for _, it := range resumes {
			ids = append(ids, it.Task.ID)
		}

		if err := st.ResumeTasks(ctx, ids); err != nil {
			errs = append(errs, err)
		} else {
			result.Resumed = len(ids)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return result, fmt.Errorf("failed to apply retention plan: %w", err)
	}

	return result, nil
}
