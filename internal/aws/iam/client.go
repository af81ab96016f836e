package iam

import (
	"context"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"go.uber.org/zap"

	"tasnim.dev/iamsync/internal/metrics"
	"tasnim.dev/iamsync/internal/utils"
)

type IAMAPI interface {
	GetPolicy(ctx context.Context, params *awsiam.GetPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.GetPolicyOutput, error)
	CreatePolicy(ctx context.Context, params *awsiam.CreatePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.CreatePolicyOutput, error)
	CreatePolicyVersion(ctx context.Context, params *awsiam.CreatePolicyVersionInput, optFns ...func(*awsiam.Options)) (*awsiam.CreatePolicyVersionOutput, error)
	DeletePolicyVersion(ctx context.Context, params *awsiam.DeletePolicyVersionInput, optFns ...func(*awsiam.Options)) (*awsiam.DeletePolicyVersionOutput, error)
	ListPolicyVersions(ctx context.Context, params *awsiam.ListPolicyVersionsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListPolicyVersionsOutput, error)
	GetRole(ctx context.Context, params *awsiam.GetRoleInput, optFns ...func(*awsiam.Options)) (*awsiam.GetRoleOutput, error)
	CreateRole(ctx context.Context, params *awsiam.CreateRoleInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateRoleOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error)
	AttachRolePolicy(ctx context.Context, params *awsiam.AttachRolePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachRolePolicyOutput, error)
	ListEntitiesForPolicy(ctx context.Context, params *awsiam.ListEntitiesForPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.ListEntitiesForPolicyOutput, error)
}

// Client is the IAM adapter used by the reconcilers. Every failed call is
// classified into an *Error and offered to the Translator before it is
// returned, so permission problems read the same whichever operation hit them.
type Client struct {
	api       IAMAPI
	accountID string
	partition string
	logger    *zap.Logger
	translate Translator
}

type Option func(*Client)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("iam")
		}
	}
}

// WithTranslator replaces TranslatePermissionError. nil disables translation.
func WithTranslator(t Translator) Option {
	return func(c *Client) { c.translate = t }
}

// WithPartition sets the ARN partition, e.g. "aws-cn". Defaults to "aws".
func WithPartition(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.partition = p
		}
	}
}

// NewClient wraps api. accountID owns the Custom policies the client addresses.
func NewClient(api IAMAPI, accountID string, opts ...Option) *Client {
	c := &Client{
		api:       api,
		accountID: accountID,
		partition: defaultPartition,
		logger:    zap.NewNop(),
		translate: TranslatePermissionError,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AccountID returns the account Custom policies are resolved in.
func (c *Client) AccountID() string { return c.accountID }

// PolicyARN builds the ARN of a managed policy.
func (c *Client) PolicyARN(name string, t PolicyType) string {
	return policyARN(c.partition, c.accountID, name, t)
}

func (c *Client) begin(action string) {
	metrics.APIRequestsTotal.WithLabelValues(action).Inc()
}

// fail is the translation boundary every adapter method returns through.
func (c *Client) fail(action, target string, err error) error {
	e := classify(action, target, err)
	metrics.APIErrorsTotal.WithLabelValues(action, e.Kind.String()).Inc()
	c.logger.Debug("iam request failed",
		zap.String("action", action),
		zap.String("target", target),
		zap.String("code", e.Code),
		zap.Stringer("kind", e.Kind),
		zap.Error(err),
	)
	if c.translate != nil {
		if terr := c.translate(e, action); terr != nil {
			return terr
		}
	}
	return e
}

func (c *Client) GetPolicy(ctx context.Context, name string, t PolicyType) (*IAMPolicy, error) {
	c.begin("GetPolicy")
	out, err := c.api.GetPolicy(ctx, &awsiam.GetPolicyInput{
		PolicyArn: aws.String(c.PolicyARN(name, t)),
	})
	if err != nil {
		return nil, c.fail("GetPolicy", name, err)
	}
	p := toPolicy(out.Policy)
	return &p, nil
}

func (c *Client) CreatePolicy(ctx context.Context, name, description, document string) (*IAMPolicy, error) {
	c.begin("CreatePolicy")
	out, err := c.api.CreatePolicy(ctx, &awsiam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		Description:    aws.String(description),
		PolicyDocument: aws.String(document),
	})
	if err != nil {
		return nil, c.fail("CreatePolicy", name, err)
	}
	p := toPolicy(out.Policy)
	return &p, nil
}

// ListPolicyVersions returns every stored version of a Custom policy.
func (c *Client) ListPolicyVersions(ctx context.Context, name string) ([]IAMPolicyVersion, error) {
	var versions []IAMPolicyVersion
	var marker *string

	for {
		c.begin("ListPolicyVersions")
		out, err := c.api.ListPolicyVersions(ctx, &awsiam.ListPolicyVersionsInput{
			PolicyArn: aws.String(c.PolicyARN(name, PolicyTypeCustom)),
			Marker:    marker,
		})
		if err != nil {
			return nil, c.fail("ListPolicyVersions", name, err)
		}

		for _, v := range out.Versions {
			versions = append(versions, IAMPolicyVersion{
				VersionID:        aws.ToString(v.VersionId),
				IsDefaultVersion: v.IsDefaultVersion,
				CreatedAt:        aws.ToTime(v.CreateDate),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return versions, nil
}

func (c *Client) DeletePolicyVersion(ctx context.Context, name, versionID string) error {
	c.begin("DeletePolicyVersion")
	_, err := c.api.DeletePolicyVersion(ctx, &awsiam.DeletePolicyVersionInput{
		PolicyArn: aws.String(c.PolicyARN(name, PolicyTypeCustom)),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return c.fail("DeletePolicyVersion", name+"@"+versionID, err)
	}
	return nil
}

func (c *Client) CreatePolicyVersion(ctx context.Context, name, document string, setAsDefault bool) (*IAMPolicyVersion, error) {
	c.begin("CreatePolicyVersion")
	out, err := c.api.CreatePolicyVersion(ctx, &awsiam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(c.PolicyARN(name, PolicyTypeCustom)),
		PolicyDocument: aws.String(document),
		SetAsDefault:   setAsDefault,
	})
	if err != nil {
		return nil, c.fail("CreatePolicyVersion", name, err)
	}
	v := IAMPolicyVersion{IsDefaultVersion: setAsDefault}
	if out.PolicyVersion != nil {
		v.VersionID = aws.ToString(out.PolicyVersion.VersionId)
		v.IsDefaultVersion = out.PolicyVersion.IsDefaultVersion
		v.CreatedAt = aws.ToTime(out.PolicyVersion.CreateDate)
	}
	return &v, nil
}

func (c *Client) GetRole(ctx context.Context, name string) (*IAMRole, error) {
	c.begin("GetRole")
	out, err := c.api.GetRole(ctx, &awsiam.GetRoleInput{
		RoleName: aws.String(name),
	})
	if err != nil {
		return nil, c.fail("GetRole", name, err)
	}
	r := toRole(out.Role)
	return &r, nil
}

func (c *Client) CreateRole(ctx context.Context, name, description, assumeRolePolicy string) (*IAMRole, error) {
	c.begin("CreateRole")
	out, err := c.api.CreateRole(ctx, &awsiam.CreateRoleInput{
		RoleName:                 aws.String(name),
		Description:              aws.String(description),
		AssumeRolePolicyDocument: aws.String(assumeRolePolicy),
	})
	if err != nil {
		return nil, c.fail("CreateRole", name, err)
	}
	r := toRole(out.Role)
	return &r, nil
}

func (c *Client) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]IAMAttachedPolicy, error) {
	var policies []IAMAttachedPolicy
	var marker *string

	for {
		c.begin("ListAttachedRolePolicies")
		out, err := c.api.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, c.fail("ListAttachedRolePolicies", roleName, err)
		}

		for _, p := range out.AttachedPolicies {
			arn := aws.ToString(p.PolicyArn)
			name := aws.ToString(p.PolicyName)
			if name == "" {
				name = utils.ShortName(arn)
			}
			policies = append(policies, IAMAttachedPolicy{Name: name, ARN: arn})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

func (c *Client) AttachRolePolicy(ctx context.Context, policyName, roleName string, t PolicyType) error {
	c.begin("AttachRolePolicy")
	_, err := c.api.AttachRolePolicy(ctx, &awsiam.AttachRolePolicyInput{
		PolicyArn: aws.String(c.PolicyARN(policyName, t)),
		RoleName:  aws.String(roleName),
	})
	if err != nil {
		return c.fail("AttachRolePolicy", roleName, err)
	}
	return nil
}

// ListEntitiesForPolicy reports the groups, users and roles a Custom policy
// is attached to, in that order.
func (c *Client) ListEntitiesForPolicy(ctx context.Context, name string) ([]IAMPolicyEntity, error) {
	var entities []IAMPolicyEntity
	var marker *string

	for {
		c.begin("ListEntitiesForPolicy")
		out, err := c.api.ListEntitiesForPolicy(ctx, &awsiam.ListEntitiesForPolicyInput{
			PolicyArn: aws.String(c.PolicyARN(name, PolicyTypeCustom)),
			Marker:    marker,
		})
		if err != nil {
			return nil, c.fail("ListEntitiesForPolicy", name, err)
		}

		for _, g := range out.PolicyGroups {
			entities = append(entities, IAMPolicyEntity{Name: aws.ToString(g.GroupName), Type: "Group"})
		}
		for _, u := range out.PolicyUsers {
			entities = append(entities, IAMPolicyEntity{Name: aws.ToString(u.UserName), Type: "User"})
		}
		for _, r := range out.PolicyRoles {
			entities = append(entities, IAMPolicyEntity{Name: aws.ToString(r.RoleName), Type: "Role"})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return entities, nil
}

func toPolicy(p *iamtypes.Policy) IAMPolicy {
	if p == nil {
		return IAMPolicy{}
	}
	var attachmentCount int
	if p.AttachmentCount != nil {
		attachmentCount = int(*p.AttachmentCount)
	}
	return IAMPolicy{
		Name:             aws.ToString(p.PolicyName),
		PolicyID:         aws.ToString(p.PolicyId),
		ARN:              aws.ToString(p.Arn),
		Path:             aws.ToString(p.Path),
		DefaultVersionID: aws.ToString(p.DefaultVersionId),
		AttachmentCount:  attachmentCount,
		CreatedAt:        aws.ToTime(p.CreateDate),
		UpdatedAt:        aws.ToTime(p.UpdateDate),
	}
}

func toRole(r *iamtypes.Role) IAMRole {
	if r == nil {
		return IAMRole{}
	}
	var createdAt time.Time
	if r.CreateDate != nil {
		createdAt = *r.CreateDate
	}

	// GetRole returns the trust document URL-encoded.
	policyDoc := aws.ToString(r.AssumeRolePolicyDocument)
	if decoded, err := url.QueryUnescape(policyDoc); err == nil {
		policyDoc = decoded
	}

	return IAMRole{
		Name:                     aws.ToString(r.RoleName),
		RoleID:                   aws.ToString(r.RoleId),
		ARN:                      aws.ToString(r.Arn),
		Path:                     aws.ToString(r.Path),
		Description:              aws.ToString(r.Description),
		CreatedAt:                createdAt,
		AssumeRolePolicyDocument: policyDoc,
	}
}
