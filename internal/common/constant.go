package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on inbound requests ("Authorization: Bearer <token>").
const AccessTokenHeaderName = "Authorization"

// AccessTokenQueryParam carries the access token on WebSocket upgrade
// requests, where custom headers are not available to browser clients.
const AccessTokenQueryParam = "token"
