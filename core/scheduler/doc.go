// Package scheduler turns a prioritized activity catalog into a calendar.
//
// Every activity is expanded into the occurrences its frequency demands over
// the planning window. Occurrences are placed one after the other in a single
// greedy pass ordered by priority, then date, then catalog position. Each
// placement reserves the slot on all required resources of the availability
// index, so later occurrences only see what is left. When no slot exists the
// declared backup activities are tried in order; otherwise the occurrence is
// recorded as Unscheduled with a reason. Placed occurrences are never
// revisited.
package scheduler
