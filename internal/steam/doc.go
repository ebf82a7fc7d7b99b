// Package steam implements the Steam side of a browser login: building the OpenID 2.0 login URL that redirects
// back to the loopback listener, decoding and verifying the returned assertion, and looking up the player's
// public profile through the Steam Web API.
package steam
