// Command editpdf converts queued assignment submissions to PDF page images.
//
// "editpdf drain" runs one bounded pass over the conversion queue and exits.
// "editpdf run" keeps draining on the configured cron schedule until it is
// interrupted, optionally exposing Prometheus metrics. The queue subcommands
// inspect and edit the queue directly, and "editpdf health" checks that the
// data directory, queue database, and converter are usable.
package main
