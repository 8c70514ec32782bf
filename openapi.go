// Package sikap carries the HTTP API contract of the upload service.
package sikap

import _ "embed"

// OpenAPI is the OpenAPI 3 document served at /openapi.yaml and /swagger.
//
//go:embed openapi.yaml
var OpenAPI []byte
