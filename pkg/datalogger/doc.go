// Package datalogger implements the Data Logger: the write path that
// ingests property updates and schema revisions, classifies bad data,
// enforces rate/size limits, batches writes, and flushes them to the
// backend. One DataLogger instance is hosted per logger server and
// runs a single cooperative event loop; all mutation of its internal
// state happens on that loop's goroutine.
package datalogger
