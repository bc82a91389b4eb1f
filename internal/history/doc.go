// Package history keeps a local record of every successful analysis in a
// SQLite database (history.db in the config directory), so reports can be
// regenerated after the process that produced them has exited.
package history
