// Package lock keeps two runs from reconciling the same store at once.
//
// Locks are keyed by store and carry an owner (the run id) and a TTL that the
// holder refreshes while its run is in progress. The database driver stores
// them in sync_locks, the redis driver as SET NX keys refreshed and released
// with compare-and-set scripts, and the none driver in memory. A run that
// cannot take its store's lock is rejected with ErrLocked.
package lock
