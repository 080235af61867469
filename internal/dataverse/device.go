package dataverse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

const authorityFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0"

var ErrNotSignedIn = errors.New("not signed in to Dataverse")

// DeviceConfig describes a public client that signs a user in with the device
// code flow and acts on their behalf.
func DeviceConfig(tenantID, clientID, orgURL string) *oauth2.Config {
	authority := fmt.Sprintf(authorityFormat, tenantID)
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:       authority + "/authorize",
			TokenURL:      authority + "/token",
			DeviceAuthURL: authority + "/devicecode",
			AuthStyle:     oauth2.AuthStyleInParams,
		},
		Scopes: []string{strings.TrimRight(orgURL, "/") + "/user_impersonation", "offline_access"},
	}
}

// Login runs the device code flow. prompt is shown the code the user has to
// enter; the call blocks until they finish or ctx ends.
func Login(ctx context.Context, cfg *oauth2.Config, store *TokenStore, prompt func(*oauth2.DeviceAuthResponse)) error {
	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}
	prompt(da)

	tok, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return fmt.Errorf("waiting for sign-in: %w", err)
	}
	return store.Save(tok)
}
