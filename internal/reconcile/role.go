package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
	"tasnim.dev/iamsync/internal/constants"
)

// ErrRoleNotExist is returned by EnsureRole when the role is absent and
// creation was not requested.
var ErrRoleNotExist = errors.New("role does not exist")

// EnsureRole returns roleName, creating it when absent and createIfNotExist
// is set. A nil assumeRolePolicy means LambdaAssumeRolePolicy and an empty
// description means constants.DefaultRoleDescription. An existing role is
// returned as-is: its trust policy is never compared or updated.
func (r *Reconciler) EnsureRole(ctx context.Context, roleName string, createIfNotExist bool, description string, assumeRolePolicy any) (*awsiam.IAMRole, error) {
	if description == "" {
		description = constants.DefaultRoleDescription
	}
	if assumeRolePolicy == nil {
		assumeRolePolicy = awsiam.LambdaAssumeRolePolicy
	}
	trust, err := awsiam.MarshalDocument(assumeRolePolicy)
	if err != nil {
		r.record(opEnsureRole, err)
		return nil, fmt.Errorf("ensure role %s: %w", roleName, err)
	}

	var role *awsiam.IAMRole
	err = r.run(ctx, opEnsureRole, []zap.Field{zap.String("role", roleName)},
		func(ctx context.Context, c *awsiam.Client) error {
			existing, err := c.GetRole(ctx, roleName)
			switch {
			case err == nil:
				role = existing
				return nil
			case !awsiam.IsNotFound(err):
				return err
			case !createIfNotExist:
				// Not fatal: retried like any other non-permission failure.
				return fmt.Errorf("role %s: %w", roleName, ErrRoleNotExist)
			}

			created, err := c.CreateRole(ctx, roleName, description, trust)
			if err != nil {
				return err
			}
			r.logger.Info("role created", zap.String("role", roleName))
			role = created
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("ensure role %s: %w", roleName, err)
	}
	return role, nil
}
