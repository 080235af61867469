package dataverse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// Credentials select how requests are authorized, in order: a fixed
// AccessToken (typically handed over by a hosting application), the
// client-credentials grant when ClientSecret is set, and finally the
// signed-in user's token from Store.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	Store        *TokenStore
	Logger       *slog.Logger
}

// NewHTTPClient returns an HTTP client that attaches bearer tokens for the
// organization at orgURL.
func NewHTTPClient(ctx context.Context, orgURL string, creds Credentials) (*http.Client, error) {
	if creds.Logger == nil {
		creds.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var hc *http.Client

	switch {
	case creds.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"})
		hc = oauth2.NewClient(ctx, ts)
	case creds.TenantID != "" && creds.ClientID != "" && creds.ClientSecret != "":
		cfg := clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     fmt.Sprintf(tokenURLFormat, creds.TenantID),
			Scopes:       []string{strings.TrimRight(orgURL, "/") + "/.default"},
		}
		hc = cfg.Client(ctx)
	case creds.TenantID != "" && creds.ClientID != "" && creds.Store != nil:
		tok, err := creds.Store.Load()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, fmt.Errorf("%w: run 'timegrid login' first", ErrNotSignedIn)
		}
		cfg := DeviceConfig(creds.TenantID, creds.ClientID, orgURL)
		src := &persistingSource{
			src:    cfg.TokenSource(ctx, tok),
			store:  creds.Store,
			logger: creds.Logger,
			last:   tok.AccessToken,
		}
		hc = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
	default:
		return nil, fmt.Errorf("dataverse credentials incomplete: set tenant_id and client_id")
	}

	hc.Timeout = 30 * time.Second
	return hc, nil
}
