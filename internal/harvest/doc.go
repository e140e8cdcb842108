// Package harvest implements the orchestration engine that turns a
// (court, BS date) unit of work into persisted case and hearing records:
// the work grid, the checkpoint ledger, the run-scoped case identity cache,
// retry policy, and the shared types every source adapter produces.
package harvest
