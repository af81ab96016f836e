package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiamsdk "github.com/aws/aws-sdk-go-v2/service/iam"
	"go.uber.org/zap"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
)

// NewIAMClient builds the IAM adapter for one reconcile call: it loads the
// profile, points the SDK at a custom endpoint when one is configured, and
// resolves the caller's account so Custom policies can be addressed by ARN.
func NewIAMClient(ctx context.Context, p Profile, logger *zap.Logger) (*awsiam.Client, error) {
	cfg, err := LoadConfig(ctx, p)
	if err != nil {
		return nil, err
	}

	accountID, err := ResolveAccountID(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}

	api := awsiamsdk.NewFromConfig(cfg, func(o *awsiamsdk.Options) {
		if p.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.Endpoint)
		}
	})

	return awsiam.NewClient(api, accountID,
		awsiam.WithLogger(logger),
		awsiam.WithPartition(partitionFor(cfg.Region)),
	), nil
}

// partitionFor maps a region to its ARN partition.
func partitionFor(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	default:
		return "aws"
	}
}
