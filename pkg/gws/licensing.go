package gws

import (
	"context"
	"fmt"
	"time"

	licensing "google.golang.org/api/licensing/v1"
	"google.golang.org/api/option"
)

// LicensingService implements engine.Licensing over the Enterprise
// License Manager API.
type LicensingService struct {
	client *Client
	svc    *licensing.Service
}

// Licensing builds the license assignment adapter.
func (c *Client) Licensing(ctx context.Context) (*LicensingService, error) {
	src, err := c.tokenSource(ctx, c.cfg.AdminSubject, adminScopes)
	if err != nil {
		return nil, err
	}
	svc, err := licensing.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("creating licensing service: %w", err)
	}
	return &LicensingService{client: c, svc: svc}, nil
}

// HasLicense implements engine.Licensing.
func (l *LicensingService) HasLicense(ctx context.Context, productID, skuID, userEmail string) (bool, error) {
	start := time.Now()
	_, err := l.svc.LicenseAssignments.Get(productID, skuID, userEmail).Context(ctx).Do()
	l.client.observe("licensing", "licenseAssignments.get", start, err)
	if isHTTPStatus(err, 404) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting license %s/%s for %s: %w", productID, skuID, userEmail, err)
	}
	return true, nil
}

// AssignLicense implements engine.Licensing.
func (l *LicensingService) AssignLicense(ctx context.Context, productID, skuID, userEmail string) error {
	start := time.Now()
	_, err := l.svc.LicenseAssignments.Insert(productID, skuID, &licensing.LicenseAssignmentInsert{
		UserId: userEmail,
	}).Context(ctx).Do()
	l.client.observe("licensing", "licenseAssignments.insert", start, err)
	if err != nil {
		return fmt.Errorf("assigning license %s/%s to %s: %w", productID, skuID, userEmail, err)
	}
	return nil
}
