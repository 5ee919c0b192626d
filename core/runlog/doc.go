// Package runlog persists one cron_job_logs row per sync invocation.
//
// Completed runs are written with status success or partial and their counters;
// runs that fail before a result exists are written with status error and the
// raw error message, so every invocation leaves a trace.
package runlog
