package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"

	"tasnim.dev/iamsync/internal/constants"
)

const testAccount = "123456789012"

type fakeVersion struct {
	id        string
	document  string
	isDefault bool
}

type fakePolicy struct {
	name        string
	description string
	versions    []fakeVersion
	nextVersion int
}

// fakeIAM is an in-memory IAM control plane. Errors queued in failures are
// returned, in order, by the next calls to the named action.
type fakeIAM struct {
	mu       sync.Mutex
	policies map[string]*fakePolicy // by ARN
	roles    map[string]*iamtypes.Role
	attached map[string][]string // role name -> policy ARNs
	calls    map[string]int
	failures map[string][]error
	inputs   []any
}

func newFakeIAM() *fakeIAM {
	return &fakeIAM{
		policies: map[string]*fakePolicy{},
		roles:    map[string]*iamtypes.Role{},
		attached: map[string][]string{},
		calls:    map[string]int{},
		failures: map[string][]error{},
	}
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code + " from fake"}
}

func customARN(name string) string {
	return fmt.Sprintf("arn:aws:iam::%s:policy/%s", testAccount, name)
}

func (f *fakeIAM) failNext(action string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[action] = append(f.failures[action], errs...)
}

func (f *fakeIAM) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

// enter records the call and pops a queued failure. Callers hold f.mu.
func (f *fakeIAM) enter(action string, input any) error {
	f.calls[action]++
	f.inputs = append(f.inputs, input)
	if q := f.failures[action]; len(q) > 0 {
		f.failures[action] = q[1:]
		return q[0]
	}
	return nil
}

// seedPolicy stores a Custom policy with the given version documents; the
// version at defaultIdx is the default.
func (f *fakeIAM) seedPolicy(name string, defaultIdx int, docs ...string) {
	p := &fakePolicy{name: name}
	for i, d := range docs {
		p.nextVersion++
		p.versions = append(p.versions, fakeVersion{
			id:        fmt.Sprintf("v%d", p.nextVersion),
			document:  d,
			isDefault: i == defaultIdx,
		})
	}
	f.policies[customARN(name)] = p
}

func (f *fakeIAM) seedRole(name, trust string) {
	f.roles[name] = &iamtypes.Role{
		RoleName:                 awssdk.String(name),
		Arn:                      awssdk.String(fmt.Sprintf("arn:aws:iam::%s:role/%s", testAccount, name)),
		AssumeRolePolicyDocument: awssdk.String(trust),
	}
}

func (f *fakeIAM) policy(name string) *fakePolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policies[customARN(name)]
}

func (f *fakeIAM) defaultVersions(name string) []fakeVersion {
	var out []fakeVersion
	for _, v := range f.policy(name).versions {
		if v.isDefault {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeIAM) versionIDs(name string) []string {
	var ids []string
	for _, v := range f.policy(name).versions {
		ids = append(ids, v.id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeIAM) GetPolicy(ctx context.Context, params *awsiam.GetPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.GetPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetPolicy", params); err != nil {
		return nil, err
	}
	p, ok := f.policies[*params.PolicyArn]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("policy not found")}
	}
	out := &iamtypes.Policy{PolicyName: awssdk.String(p.name), Arn: params.PolicyArn}
	for _, v := range p.versions {
		if v.isDefault {
			out.DefaultVersionId = awssdk.String(v.id)
		}
	}
	return &awsiam.GetPolicyOutput{Policy: out}, nil
}

func (f *fakeIAM) CreatePolicy(ctx context.Context, params *awsiam.CreatePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.CreatePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePolicy", params); err != nil {
		return nil, err
	}
	arn := customARN(*params.PolicyName)
	if _, ok := f.policies[arn]; ok {
		return nil, apiError("EntityAlreadyExists")
	}
	f.policies[arn] = &fakePolicy{
		name:        *params.PolicyName,
		description: awssdk.ToString(params.Description),
		versions:    []fakeVersion{{id: "v1", document: *params.PolicyDocument, isDefault: true}},
		nextVersion: 1,
	}
	return &awsiam.CreatePolicyOutput{Policy: &iamtypes.Policy{PolicyName: params.PolicyName, Arn: awssdk.String(arn)}}, nil
}

func (f *fakeIAM) CreatePolicyVersion(ctx context.Context, params *awsiam.CreatePolicyVersionInput, optFns ...func(*awsiam.Options)) (*awsiam.CreatePolicyVersionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePolicyVersion", params); err != nil {
		return nil, err
	}
	p, ok := f.policies[*params.PolicyArn]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("policy not found")}
	}
	if len(p.versions) >= constants.MaxPolicyVersions {
		return nil, apiError("LimitExceeded")
	}
	p.nextVersion++
	v := fakeVersion{id: fmt.Sprintf("v%d", p.nextVersion), document: *params.PolicyDocument, isDefault: params.SetAsDefault}
	if v.isDefault {
		for i := range p.versions {
			p.versions[i].isDefault = false
		}
	}
	p.versions = append(p.versions, v)
	return &awsiam.CreatePolicyVersionOutput{
		PolicyVersion: &iamtypes.PolicyVersion{VersionId: awssdk.String(v.id), IsDefaultVersion: v.isDefault},
	}, nil
}

func (f *fakeIAM) DeletePolicyVersion(ctx context.Context, params *awsiam.DeletePolicyVersionInput, optFns ...func(*awsiam.Options)) (*awsiam.DeletePolicyVersionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeletePolicyVersion", params); err != nil {
		return nil, err
	}
	p, ok := f.policies[*params.PolicyArn]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("policy not found")}
	}
	for i, v := range p.versions {
		if v.id != *params.VersionId {
			continue
		}
		if v.isDefault {
			return nil, apiError("DeleteConflict")
		}
		p.versions = append(p.versions[:i], p.versions[i+1:]...)
		return &awsiam.DeletePolicyVersionOutput{}, nil
	}
	return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("version not found")}
}

func (f *fakeIAM) ListPolicyVersions(ctx context.Context, params *awsiam.ListPolicyVersionsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListPolicyVersionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPolicyVersions", params); err != nil {
		return nil, err
	}
	p, ok := f.policies[*params.PolicyArn]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("policy not found")}
	}
	out := &awsiam.ListPolicyVersionsOutput{}
	for _, v := range p.versions {
		out.Versions = append(out.Versions, iamtypes.PolicyVersion{
			VersionId:        awssdk.String(v.id),
			IsDefaultVersion: v.isDefault,
		})
	}
	return out, nil
}

func (f *fakeIAM) GetRole(ctx context.Context, params *awsiam.GetRoleInput, optFns ...func(*awsiam.Options)) (*awsiam.GetRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetRole", params); err != nil {
		return nil, err
	}
	r, ok := f.roles[*params.RoleName]
	if !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("role not found")}
	}
	return &awsiam.GetRoleOutput{Role: r}, nil
}

func (f *fakeIAM) CreateRole(ctx context.Context, params *awsiam.CreateRoleInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateRole", params); err != nil {
		return nil, err
	}
	if _, ok := f.roles[*params.RoleName]; ok {
		return nil, apiError("EntityAlreadyExists")
	}
	r := &iamtypes.Role{
		RoleName:                 params.RoleName,
		Description:              params.Description,
		Arn:                      awssdk.String(fmt.Sprintf("arn:aws:iam::%s:role/%s", testAccount, *params.RoleName)),
		AssumeRolePolicyDocument: params.AssumeRolePolicyDocument,
	}
	f.roles[*params.RoleName] = r
	return &awsiam.CreateRoleOutput{Role: r}, nil
}

func (f *fakeIAM) ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListAttachedRolePolicies", params); err != nil {
		return nil, err
	}
	if _, ok := f.roles[*params.RoleName]; !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("role not found")}
	}
	out := &awsiam.ListAttachedRolePoliciesOutput{}
	for _, arn := range f.attached[*params.RoleName] {
		out.AttachedPolicies = append(out.AttachedPolicies, iamtypes.AttachedPolicy{
			PolicyArn:  awssdk.String(arn),
			PolicyName: awssdk.String(arn[strings.LastIndex(arn, "/")+1:]),
		})
	}
	return out, nil
}

func (f *fakeIAM) AttachRolePolicy(ctx context.Context, params *awsiam.AttachRolePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AttachRolePolicy", params); err != nil {
		return nil, err
	}
	if _, ok := f.roles[*params.RoleName]; !ok {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("role not found")}
	}
	arn := *params.PolicyArn
	if _, ok := f.policies[arn]; !ok && !strings.HasPrefix(arn, "arn:aws:iam::aws:policy/") {
		return nil, &iamtypes.NoSuchEntityException{Message: awssdk.String("policy not found")}
	}
	f.attached[*params.RoleName] = append(f.attached[*params.RoleName], arn)
	return &awsiam.AttachRolePolicyOutput{}, nil
}

func (f *fakeIAM) ListEntitiesForPolicy(ctx context.Context, params *awsiam.ListEntitiesForPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.ListEntitiesForPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListEntitiesForPolicy", params); err != nil {
		return nil, err
	}
	out := &awsiam.ListEntitiesForPolicyOutput{}
	for role, arns := range f.attached {
		for _, arn := range arns {
			if arn == *params.PolicyArn {
				out.PolicyRoles = append(out.PolicyRoles, iamtypes.PolicyRole{RoleName: awssdk.String(role)})
			}
		}
	}
	return out, nil
}
