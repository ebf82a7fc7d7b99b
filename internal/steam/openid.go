package steam

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// NamespaceOpenID2 is the openid.ns value for OpenID 2.0 messages.
	NamespaceOpenID2 = "http://specs.openid.net/auth/2.0"
	// IdentifierSelect lets the provider choose the identity to assert.
	IdentifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"

	DefaultEndpoint   = "https://steamcommunity.com/openid/login"
	DefaultAPIBaseURL = "https://api.steampowered.com"

	modeSetup  = "checkid_setup"
	modeCheck  = "check_authentication"
	modeResult = "id_res"
	modeCancel = "cancel"
)

// ReturnTo is the URL Steam redirects the browser to after login for a listener bound to port.
func ReturnTo(port uint16) string {
	return "http://127.0.0.1:" + strconv.Itoa(int(port))
}

// LoginURL builds the checkid_setup URL for endpoint.
//
// returnTo is where the browser is sent with the assertion and realm is the trust root shown to the user; for the
// loopback flow both are the listener's [ReturnTo] URL.
func LoginURL(endpoint, returnTo, realm string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid OpenID endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid OpenID endpoint %q: scheme and host are required", endpoint)
	}

	params := url.Values{}
	params.Set("openid.ns", NamespaceOpenID2)
	params.Set("openid.return_to", returnTo)
	params.Set("openid.mode", modeSetup)
	params.Set("openid.realm", realm)
	params.Set("openid.identity", IdentifierSelect)
	params.Set("openid.claimed_id", IdentifierSelect)

	u.RawQuery = params.Encode()
	return u.String(), nil
}
