package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityOptional                      // Token used when present
	SecurityAccess                        // Access token required
)

// EndpointSecurityConfig maps gRPC methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Standard services - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// MarketplaceService - browsing works anonymously
	"/skillbridge.v1.MarketplaceService/ListOpportunities": SecurityOptional,
	"/skillbridge.v1.MarketplaceService/GetOpportunity":    SecurityPublic,

	// MarketplaceService - Access Protected
	"/skillbridge.v1.MarketplaceService/CreateOpportunity":   SecurityAccess,
	"/skillbridge.v1.MarketplaceService/CloseOpportunity":    SecurityAccess,
	"/skillbridge.v1.MarketplaceService/ReopenOpportunity":   SecurityAccess,
	"/skillbridge.v1.MarketplaceService/SubmitApplication":   SecurityAccess,
	"/skillbridge.v1.MarketplaceService/DecideApplication":   SecurityAccess,
	"/skillbridge.v1.MarketplaceService/WithdrawApplication": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	if strings.HasPrefix(method, "/grpc.reflection.") {
		return SecurityPublic
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
