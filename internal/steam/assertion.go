package steam

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/steamlink/internal/shared"
)

// Assertion holds the decoded openid.* fields of a login callback.
type Assertion map[string]string

// NewAssertion percent-decodes a captured callback query.
//
// The loopback listener hands over query values exactly as they appeared on the wire, so both keys and values are
// unescaped here.
func NewAssertion(query map[string]string) (Assertion, error) {
	a := make(Assertion, len(query))
	for k, v := range query {
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", shared.ErrInvalidAssertion, k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrInvalidAssertion, key, err)
		}
		a[key] = value
	}
	return a, nil
}

func (a Assertion) Mode() string      { return a["openid.mode"] }
func (a Assertion) ClaimedID() string { return a["openid.claimed_id"] }
func (a Assertion) ReturnTo() string  { return a["openid.return_to"] }

// SteamID returns the 64-bit Steam ID at the end of openid.claimed_id.
func (a Assertion) SteamID() (string, error) {
	claimed := a.ClaimedID()
	if claimed == "" {
		return "", fmt.Errorf("%w: missing openid.claimed_id", shared.ErrInvalidAssertion)
	}

	id := claimed[strings.LastIndex(claimed, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("%w: no id in claimed_id %q", shared.ErrInvalidAssertion, claimed)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: non-numeric id in claimed_id %q", shared.ErrInvalidAssertion, claimed)
		}
	}
	return id, nil
}

// Validate checks that the assertion is a positive id_res response carrying a signature.
//
// A user who backs out on the Steam page produces mode "cancel", reported as [shared.ErrLoginCancelled].
func (a Assertion) Validate() error {
	switch a.Mode() {
	case modeResult:
	case modeCancel:
		return shared.ErrLoginCancelled
	case "":
		return fmt.Errorf("%w: missing openid.mode", shared.ErrInvalidAssertion)
	default:
		return fmt.Errorf("%w: unexpected mode %q", shared.ErrInvalidAssertion, a.Mode())
	}

	if a["openid.sig"] == "" || a["openid.signed"] == "" {
		return fmt.Errorf("%w: unsigned response", shared.ErrInvalidAssertion)
	}
	if _, err := a.SteamID(); err != nil {
		return err
	}
	return nil
}

// CheckReturnTo reports whether the assertion was issued for want.
func (a Assertion) CheckReturnTo(want string) error {
	if got := strings.TrimSuffix(a.ReturnTo(), "/"); got != strings.TrimSuffix(want, "/") {
		return fmt.Errorf("%w: return_to %q does not match %q", shared.ErrInvalidAssertion, a.ReturnTo(), want)
	}
	return nil
}

// CheckParams builds the check_authentication form: the signature, every signed field that is present, and the mode
// switched to check_authentication.
func (a Assertion) CheckParams() url.Values {
	params := url.Values{}
	params.Set("openid.ns", NamespaceOpenID2)
	params.Set("openid.sig", a["openid.sig"])

	for _, field := range strings.Split(a["openid.signed"], ",") {
		key := "openid." + strings.TrimSpace(field)
		if value, ok := a[key]; ok {
			params.Set(key, value)
		}
	}

	params.Set("openid.mode", modeCheck)
	return params
}
