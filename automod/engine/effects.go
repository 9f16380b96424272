package engine

var (
	// number of automated mutes the engine may issue per guild per day, for
	// all users combined (circuit breaker)
	QuotaMuteDay = 50
	// number of human-review escalations per guild per day (circuit breaker)
	QuotaReviewDay = 25
)

type CounterRef struct {
	Name   string
	Val    string
	Period *string
}

type CounterDistinctRef struct {
	Name   string
	Bucket string
	Val    string
}

// Mutable container for all the possible side-effects from rule execution.
//
// Rules only ever append here (via context methods); everything is
// persisted/dispatched in bulk after the full rule set has run.
type Effects struct {
	// Violation kinds detected on this message. Each distinct kind becomes
	// one ledger entry.
	Violations []string
	// Counters to increment as part of processing this event.
	CounterIncrements []CounterRef
	// Similar to "CounterIncrements", but for "distinct" style counters.
	CounterDistinctIncrements []CounterDistinctRef
	// Notification services (eg "slack") to ping about this event's outcome.
	Notifications []string
	// Operational flags to add to the author (eg "review").
	UserFlags []string
}

// Records a detected violation kind. Recording the same kind twice on one
// message has no additional effect.
func (e *Effects) AddViolation(kind string) {
	for _, k := range e.Violations {
		if k == kind {
			return
		}
	}
	e.Violations = append(e.Violations, kind)
}

// Enqueues the named counter to be incremented at the end of all rule
// processing. Will automatically increment for all time periods.
func (e *Effects) Increment(name, val string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val})
}

// Enqueues the named counter to be incremented at the end of all rule
// processing. Will only increment the indicated time period bucket.
func (e *Effects) IncrementPeriod(name, val string, period string) {
	e.CounterIncrements = append(e.CounterIncrements, CounterRef{Name: name, Val: val, Period: &period})
}

// Enqueues the named "distinct value" counter to be incremented at the end
// of all rule processing.
func (e *Effects) IncrementDistinct(name, bucket, val string) {
	e.CounterDistinctIncrements = append(e.CounterDistinctIncrements, CounterDistinctRef{Name: name, Bucket: bucket, Val: val})
}

func (e *Effects) Notify(srv string) {
	for _, s := range e.Notifications {
		if s == srv {
			return
		}
	}
	e.Notifications = append(e.Notifications, srv)
}

func (e *Effects) AddUserFlag(val string) {
	for _, f := range e.UserFlags {
		if f == val {
			return
		}
	}
	e.UserFlags = append(e.UserFlags, val)
}
