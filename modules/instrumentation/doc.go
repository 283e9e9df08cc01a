// Package instrumentation provides a periodic snapshot component built
// entirely on desim's public Kernel/Context contract: it registers itself
// like any other component, schedules its own ticks with EmitSelf, and
// reports whatever a caller-supplied sampler function returns.
//
// Tick cadence is expressed as a standard cron expression (seconds field
// included) via github.com/robfig/cron/v3, interpreted against the
// simulation clock rather than wall time: one simulated time unit is
// treated as one second when evaluating the schedule. This lets a model
// describe snapshot cadences like "every 5 simulated seconds" or "on the
// simulated minute" without the kernel needing any notion of calendar
// time itself.
package instrumentation
