package taskview

import (
	"math"
	"strings"
	"time"

	"github.com/nhle/sharedspace/internal/model"
)

// All is the filter value that accepts every status or priority.
const All = "all"

// Filter narrows the task list. Empty Status or Priority means All.
type Filter struct {
	Search   string
	Status   string
	Priority string
}

// Matches reports whether t passes all three criteria.
func (f Filter) Matches(t model.Task) bool {
	return matchesSearch(t, f.Search) &&
		matchesLabel(string(t.Status), f.Status) &&
		matchesLabel(string(t.Priority), f.Priority)
}

// Active reports whether the filter excludes anything.
func (f Filter) Active() bool {
	return f.Search != "" || !isAll(f.Status) || !isAll(f.Priority)
}

func matchesSearch(t model.Task, search string) bool {
	q := strings.ToLower(search)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func matchesLabel(value, want string) bool {
	return isAll(want) || value == want
}

func isAll(v string) bool { return v == "" || v == All }

// Apply returns the tasks matching f, keeping their order.
func Apply(tasks []model.Task, f Filter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Bucket is one of the task tabs.
type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketToday     Bucket = "today"
	BucketUpcoming  Bucket = "upcoming"
	BucketCompleted Bucket = "completed"
)

// Buckets lists the tabs in display order.
var Buckets = []Bucket{BucketAll, BucketToday, BucketUpcoming, BucketCompleted}

// InBucket reports whether t belongs to b. Calendar days are taken in loc.
func InBucket(t model.Task, b Bucket, now time.Time, loc *time.Location) bool {
	switch b {
	case BucketAll:
		return true
	case BucketToday:
		return t.DueDate != nil && SameDay(*t.DueDate, now, loc)
	case BucketUpcoming:
		tomorrow := StartOfDay(now, loc).AddDate(0, 0, 1)
		return t.DueDate != nil && !t.DueDate.Before(tomorrow)
	case BucketCompleted:
		return t.IsCompleted()
	}
	return false
}

// InBucketTasks returns the tasks of b, keeping their order.
func InBucketTasks(tasks []model.Task, b Bucket, now time.Time, loc *time.Location) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if InBucket(t, b, now, loc) {
			out = append(out, t)
		}
	}
	return out
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Stats are the counters shown above a task list.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Completed  int
	Overdue    int
}

// ComputeStats counts tasks by status plus those overdue at now.
func ComputeStats(tasks []model.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskStatusTodo:
			s.Todo++
		case model.TaskStatusInProgress:
			s.InProgress++
		case model.TaskStatusCompleted:
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

// CompletionRate is the rounded completed percentage, 0 for no tasks.
func (s Stats) CompletionRate() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
}
