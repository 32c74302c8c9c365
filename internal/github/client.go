// Package github builds the authenticated client used by release-hosted
// dataset sources.
package github

import (
	"context"
	"os"
	"strings"

	gogithub "github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceNone     AuthTokenSource = "none"
)

// ResolveAuthToken resolves a GitHub access token: an explicitly provided
// token wins, then the GITHUB_TOKEN environment variable. An empty result is
// fine — unauthenticated requests work for public release assets, just with
// tighter rate limits. It never prints the token.
func ResolveAuthToken(provided string) (string, AuthTokenSource) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit
	}
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, AuthTokenSourceEnv
	}
	return "", AuthTokenSourceNone
}

// NewClient returns a go-github client, authenticated when token is
// non-empty.
func NewClient(ctx context.Context, token string) *gogithub.Client {
	if token == "" {
		return gogithub.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return gogithub.NewClient(oauth2.NewClient(ctx, ts))
}
