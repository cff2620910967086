package common

// AuthorizationHeader carries the bearer token on outbound requests.
const AuthorizationHeader = "Authorization"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// DefaultEndpoint is the public Mixcore SaaS endpoint used when no endpoint
// is configured.
const DefaultEndpoint = "https://mixcore.net"

// DefaultTokenType is the Authorization scheme used when the server does not
// return one.
const DefaultTokenType = "Bearer"
