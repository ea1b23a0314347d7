// Package task is the event-sourced task aggregate: the status transition
// table, the command decider and the event fold that rehydrates state.
//
// Decide and Fold are pure. Callers serialize commands per task id and feed
// Fold events in the order they were produced.
package task
