// Package awscreds checks whether AWS credentials are usable so resolution
// failures can carry a concrete hint.
package awscreds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"migrationmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultTimeout bounds a single identity lookup.
const DefaultTimeout = 5 * time.Second

// ErrNoIdentity is returned when STS answers without an account.
var ErrNoIdentity = errors.New("STS returned no caller identity")

// STSClient is the part of the STS API the checker needs.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity is the AWS principal the process runs as.
type Identity struct {
	Account string `json:"account"`
	Arn     string `json:"arn"`
	UserID  string `json:"user_id"`
}

// Options selects the AWS profile and region.
type Options struct {
	Profile string
	Region  string
	Timeout time.Duration
}

// Checker looks up the caller identity.
type Checker struct {
	client  STSClient
	timeout time.Duration
}

// New loads the default AWS configuration chain and returns a Checker.
func New(ctx context.Context, opts Options) (*Checker, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(sts.NewFromConfig(cfg), opts.Timeout), nil
}

// NewWithClient returns a Checker using client.
func NewWithClient(client STSClient, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{client: client, timeout: timeout}
}

// Identity asks STS who the current credentials belong to.
func (c *Checker) Identity(ctx context.Context) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get AWS caller identity: %w", err)
	}
	if out == nil || aws.ToString(out.Account) == "" {
		return nil, ErrNoIdentity
	}
	return &Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// Hint describes the credential state in one sentence for error reports.
func (c *Checker) Hint(ctx context.Context) string {
	id, err := c.Identity(ctx)
	if err != nil {
		logging.Debug("AWSCreds", "Credential check failed: %v", err)
		return fmt.Sprintf("AWS credentials are not usable (%v). Configure a profile or export AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY before resolving.", err)
	}
	return fmt.Sprintf("AWS credentials resolve to %s in account %s; check that this principal can read the referenced parameters and stacks.", id.Arn, id.Account)
}
