// Package projection folds task and label events into the read models served
// to clients: the personal task list, the draft list and one task index per
// label. Folders are pure and never fail; events naming unknown tasks are no-ops.
package projection
