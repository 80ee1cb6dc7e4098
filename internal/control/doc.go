// Package control exposes the orchestrator over MCP so external hosts can
// start runs, poll progress, and request cooperative interruption. One run
// is active at a time, guarded by a non-blocking CAS lock.
package control
