// Package spec carries the portal's OpenAPI document, embedded so the
// binary can serve its own contract.
package spec

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
