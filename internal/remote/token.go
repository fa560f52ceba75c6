package remote

import (
	"errors"
	"os"
	"strings"
)

type TokenSource string

const (
	TokenSourceNone     TokenSource = ""
	TokenSourceExplicit TokenSource = "explicit"
	TokenSourceEnv      TokenSource = "env"
)

// ResolveToken resolves the bearer token for a remote domain.
//
// Precedence:
//  1. explicit (if non-empty)
//  2. the environment variable named envName
//
// It never prints the token.
func ResolveToken(explicit, envName string) (token string, source TokenSource, err error) {
	if tok := strings.TrimSpace(explicit); tok != "" {
		if strings.ContainsAny(tok, " \t\n\r") {
			return "", TokenSourceNone, errors.New("invalid token: contains whitespace")
		}
		return tok, TokenSourceExplicit, nil
	}
	if envName = strings.TrimSpace(envName); envName != "" {
		if env := strings.TrimSpace(os.Getenv(envName)); env != "" {
			return env, TokenSourceEnv, nil
		}
	}
	return "", TokenSourceNone, nil
}
