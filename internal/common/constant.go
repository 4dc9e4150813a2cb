package common

// AccessTokenHeaderName is the gRPC metadata key carrying the actor's access
// token on inbound requests.
const AccessTokenHeaderName = "access_token"

// Actor roles recognised by the engine. The identity layer issuing tokens is
// outside this module; it only has to agree on these strings.
const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)
