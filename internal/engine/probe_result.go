package engine

import "fedsearch/internal/repository"

// DomainProbeResult is the outcome of probing one domain with a search's
// canary statement.
//
// It is emitted by the ProbeScheduler and consumed by `domains list --probe`.
type DomainProbeResult struct {
	Domain     repository.Domain
	Compatible bool
}
