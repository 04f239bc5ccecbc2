// Package manager implements the Logger Manager: the singleton
// component that assigns devices to Data Logger instances, persists
// that assignment to loggermap.xml, and detects inconsistency between
// the persisted map and the configured server list.
package manager
