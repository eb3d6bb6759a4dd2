package workload

// Option configures a Calculator.
type Option func(*Calculator)

// WithWeeklyCapacity sets the hours that correspond to 100% workload.
// Non-positive values are ignored.
func WithWeeklyCapacity(hours float64) Option {
	return func(c *Calculator) {
		if hours > 0 {
			c.capacityHours = hours
		}
	}
}
