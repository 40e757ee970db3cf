package billing

import (
	"context"
	"log"
	"strings"

	"github.com/tenantfox/tenantfox/internal/pkg/authprovider"
)

// OrganizationReader is the slice of the auth provider client the oracle
// needs: a fresh read of one organization's public metadata.
type OrganizationReader interface {
	GetOrganization(ctx context.Context, orgID string) (*authprovider.Organization, error)
}

// StatusOracle answers whether an organization currently has an active paid
// subscription, backed by the auth provider's metadata mirror. Reads are
// uncached; every call hits the provider.
type StatusOracle struct {
	orgs OrganizationReader
}

func NewStatusOracle(orgs OrganizationReader) *StatusOracle {
	return &StatusOracle{orgs: orgs}
}

// IsActive is fail-closed: a missing org id, a read failure or a malformed
// metadata payload all deny access rather than erroring out. It never returns
// an error to the caller.
func (o *StatusOracle) IsActive(ctx context.Context, orgID string) bool {
	if strings.TrimSpace(orgID) == "" {
		return false
	}

	org, err := o.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		log.Printf("billing: subscription status lookup failed for org %s: %v", orgID, err)
		return false
	}
	return org.PublicMetadata.SubscriptionActive
}
