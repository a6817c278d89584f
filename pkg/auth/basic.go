// Package auth supplies the credential headers attached to every ERS call.
package auth

import (
	"encoding/base64"
	"net/http"
)

// Provider attaches authentication headers to an outgoing request.
// The request dispatch core treats credentials as opaque.
type Provider interface {
	Apply(h http.Header)
}

// Basic implements Provider with HTTP basic authentication, the scheme
// the ERS API uses.
type Basic struct {
	Username string
	Password string
}

// Apply sets the Authorization header.
func (b Basic) Apply(h http.Header) {
	token := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	h.Set("Authorization", "Basic "+token)
}
