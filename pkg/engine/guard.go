package engine

import (
	"fmt"
	"os"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
)

// Environment is the live tenant identity the process is pointed at.
type Environment struct {
	CustomerID string
	Domain     string
}

// EnvironmentFromOS reads the tenant identity from GOOGLE_CUSTOMER_ID and
// GOOGLE_DOMAIN.
func EnvironmentFromOS() Environment {
	return Environment{
		CustomerID: os.Getenv("GOOGLE_CUSTOMER_ID"),
		Domain:     os.Getenv("GOOGLE_DOMAIN"),
	}
}

// CheckTenantGuard verifies the blueprint's declared tenant against the
// environment. A mismatch is fatal for the entire run; a synthetic-data run
// must never be pointed at the wrong real tenant.
func CheckTenantGuard(guard blueprint.TenantGuard, env Environment) error {
	if env.CustomerID != guard.GoogleCustomerID {
		return NewGuardError(fmt.Sprintf(
			"GOOGLE_CUSTOMER_ID %q does not match blueprint tenant_guard %q",
			env.CustomerID, guard.GoogleCustomerID))
	}
	if env.Domain != guard.GoogleDomain {
		return NewGuardError(fmt.Sprintf(
			"GOOGLE_DOMAIN %q does not match blueprint tenant_guard %q",
			env.Domain, guard.GoogleDomain))
	}
	return nil
}
