package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/utils"
)

// EnsureAttached attaches policyName to roleName unless a policy with that
// name (compared case-insensitively) is already attached. policyName may carry
// an IAM path such as "service-role/X"; only the last segment is compared,
// since attached-policy listings report names without paths. An empty
// policyType means PolicyTypeSystem.
func (r *Reconciler) EnsureAttached(ctx context.Context, policyName, roleName string, policyType awsiam.PolicyType) error {
	if policyType == "" {
		policyType = awsiam.PolicyTypeSystem
	}

	shortName := utils.ShortName(policyName)
	fields := []zap.Field{zap.String("policy", policyName), zap.String("role", roleName)}
	err := r.run(ctx, opEnsureAttached, fields, func(ctx context.Context, c *awsiam.Client) error {
		attached, err := c.ListAttachedRolePolicies(ctx, roleName)
		if err != nil {
			return err
		}
		for _, p := range attached {
			if strings.EqualFold(p.Name, shortName) {
				return nil
			}
		}
		if err := c.AttachRolePolicy(ctx, policyName, roleName, policyType); err != nil {
			return err
		}
		r.logger.Info("policy attached", fields...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("attach policy %s to role %s: %w", policyName, roleName, err)
	}
	return nil
}
