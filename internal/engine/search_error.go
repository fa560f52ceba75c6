package engine

import (
	"context"
	"errors"
	"strings"

	"fedsearch/internal/federation"
	"fedsearch/internal/repository"
)

type searchErrorDisposition int

const (
	// searchErrDispositionFailed is a federated failure: the search ran but
	// did not produce a result.
	searchErrDispositionFailed searchErrorDisposition = iota
	// searchErrDispositionFatal means the search never ran.
	searchErrDispositionFatal
)

type searchErrorPresentation struct {
	disposition searchErrorDisposition
	message     string
	domain      repository.Domain
}

func presentSearchError(err error, verbose bool) searchErrorPresentation {
	if err == nil {
		return searchErrorPresentation{disposition: searchErrDispositionFatal, message: "unknown error"}
	}

	full := err.Error()

	var te *federation.CoordinatorTimeoutError
	if errors.As(err, &te) {
		return searchErrorPresentation{disposition: searchErrDispositionFailed, message: full}
	}

	var af *federation.AggregateFailure
	if errors.As(err, &af) {
		pres := searchErrorPresentation{disposition: searchErrDispositionFailed, domain: af.Domain, message: full}
		if verbose {
			return pres
		}
		var rae *repository.RemoteAccessError
		if errors.As(err, &rae) {
			if scrubbed := scrubRequestFromErrorString(rae.Err.Error()); scrubbed != "" {
				pres.message = "search " + af.Search + " failed: domain " + string(rae.Domain) + ": " + rae.Op + ": " + scrubbed
			}
		}
		return pres
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return searchErrorPresentation{disposition: searchErrDispositionFailed, message: full}
	}

	if errors.Is(err, federation.ErrUnknownDomain) {
		return searchErrorPresentation{disposition: searchErrDispositionFatal, message: full}
	}

	if verbose {
		return searchErrorPresentation{disposition: searchErrDispositionFatal, message: full}
	}
	if scrubbed := scrubRequestFromErrorString(strings.TrimSpace(full)); scrubbed != "" {
		return searchErrorPresentation{disposition: searchErrDispositionFatal, message: scrubbed}
	}
	return searchErrorPresentation{disposition: searchErrDispositionFatal, message: full}
}

// scrubRequestFromErrorString drops the request line net/http puts in front
// of transport errors, so tokens in query strings never reach the console.
//
// Typical formats:
//
//	Post "http://linz:8090/execute": dial tcp ...: connection refused
//	GET /classes/run: 500: relation does not exist
//
// It returns "" when s has no request prefix.
func scrubRequestFromErrorString(s string) string {
	methods := []string{"Get ", "Post ", "GET ", "POST "}
	for _, m := range methods {
		if !strings.HasPrefix(s, m) {
			continue
		}
		rest := strings.TrimPrefix(s, m)
		if strings.HasPrefix(rest, `"`) {
			if j := strings.Index(rest[1:], `": `); j >= 0 {
				return strings.TrimSpace(rest[j+4:])
			}
		}
		if j := strings.Index(rest, ": "); j >= 0 {
			return strings.TrimSpace(rest[j+2:])
		}
		break
	}
	return ""
}
