package report

// Option configures a Reporter.
type Option func(*Reporter)

// WithTopCandidates sets how many candidates a report lists.
func WithTopCandidates(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.topCandidates = n
		}
	}
}

// WithUrgentDays sets the window below which a due date is urgent.
func WithUrgentDays(days int) Option {
	return func(r *Reporter) {
		if days > 0 {
			r.urgentDays = days
		}
	}
}

// WithLargeTaskHours sets the hours above which a task is large.
func WithLargeTaskHours(hours int) Option {
	return func(r *Reporter) {
		if hours > 0 {
			r.largeTaskHours = hours
		}
	}
}

// WithBreakdowns attaches score breakdowns to every candidate.
func WithBreakdowns(b Breakdowner) Option {
	return func(r *Reporter) {
		r.explainer = b
	}
}
