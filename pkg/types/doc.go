/*
Package types defines the core data model shared by the Logger Manager,
Data Logger, Log Reader and Backend Client.

# Architecture

The types package is the foundation of karabologd's domain model. It
defines:

  - The typed property value model (Value, ReferenceType)
  - Timestamps with attosecond in-memory precision and microsecond
    backend resolution
  - Property update events and their origin (user vs. logger assigned)
  - Device schema revisions, identified by content digest
  - Bad-data records
  - The logger map (device -> logger server assignment)

# Core Types

Value Model:
  - Value: a tagged scalar/vector/table property value
  - ReferenceType: the tag discriminating Value's dynamic type

Timestamps:
  - Timestamp: seconds + attoseconds + optional train ID

Events:
  - PropertyUpdate: one device property change as received from the
    transport layer
  - StampOrigin: userAssigned or loggerAssigned

Schema:
  - SchemaRevision: one content-addressed device schema snapshot

Diagnostics:
  - BadDataRecord: an event classified as bad (oversize, rate-limited,
    far-future) rather than written as a value

Assignment:
  - LoggerMapEntry: one device -> logger server row

# Design Patterns

Value dispatches on ReferenceType via a plain switch, never reflection:
this keeps the hot path (classification, batching) allocation-free for
the common scalar cases.

All timestamps are carried as the Timestamp struct end-to-end; the
backend client is the only place that truncates to microseconds, and it
always truncates (never rounds).
*/
package types
