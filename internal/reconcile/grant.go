package reconcile

import (
	"context"

	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
)

// Grant ensures the Custom policy policyName holds document and is attached
// to roleName. The two steps are independent operations: if attaching fails
// the policy stays created and the error is returned.
func (r *Reconciler) Grant(ctx context.Context, policyName string, document any, roleName string) error {
	r.logger.Debug("begin ensure policy", zap.String("policy", policyName))
	if err := r.EnsurePolicy(ctx, policyName, document); err != nil {
		r.record(opGrant, err)
		return err
	}

	r.logger.Debug("begin ensure attached", zap.String("policy", policyName), zap.String("role", roleName))
	err := r.EnsureAttached(ctx, policyName, roleName, awsiam.PolicyTypeCustom)
	r.record(opGrant, err)
	return err
}
