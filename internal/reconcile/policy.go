package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/constants"
)

// EnsurePolicy makes the Custom policy policyName exist with document as its
// default version. A new policy is created outright. An existing one has
// every non-default version deleted, to stay under the stored-version cap,
// and then gains a new version promoted to default.
func (r *Reconciler) EnsurePolicy(ctx context.Context, policyName string, document any) error {
	doc, err := awsiam.MarshalDocument(document)
	if err != nil {
		r.record(opEnsurePolicy, err)
		return fmt.Errorf("ensure policy %s: %w", policyName, err)
	}

	err = r.run(ctx, opEnsurePolicy, []zap.Field{zap.String("policy", policyName)},
		func(ctx context.Context, c *awsiam.Client) error {
			return r.ensurePolicy(ctx, c, policyName, doc)
		})
	if err != nil {
		return fmt.Errorf("ensure policy %s: %w", policyName, err)
	}
	return nil
}

// ensurePolicy is one attempt. Existence is looked up fresh every time.
func (r *Reconciler) ensurePolicy(ctx context.Context, c *awsiam.Client, name, doc string) error {
	_, err := c.GetPolicy(ctx, name, awsiam.PolicyTypeCustom)
	if err != nil && !awsiam.IsNotFound(err) {
		return err
	}

	if err != nil {
		if _, err := c.CreatePolicy(ctx, name, constants.DefaultPolicyDescription, doc); err != nil {
			return err
		}
		r.logger.Info("policy created", zap.String("policy", name))
		return nil
	}

	if err := r.pruneVersions(ctx, c, name); err != nil {
		return err
	}
	v, err := c.CreatePolicyVersion(ctx, name, doc, true)
	if err != nil {
		return err
	}
	r.logger.Info("policy updated", zap.String("policy", name), zap.String("version", v.VersionID))
	return nil
}

// pruneVersions deletes every version except the default, which IAM refuses
// to delete.
func (r *Reconciler) pruneVersions(ctx context.Context, c *awsiam.Client, name string) error {
	versions, err := c.ListPolicyVersions(ctx, name)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if v.IsDefaultVersion {
			continue
		}
		if err := c.DeletePolicyVersion(ctx, name, v.VersionID); err != nil {
			return err
		}
		r.logger.Debug("policy version pruned", zap.String("policy", name), zap.String("version", v.VersionID))
	}
	return nil
}
