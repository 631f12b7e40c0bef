// Package eks checks the instance wide Amazon EKS credentials with AWS STS.
package eks

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/gitforge-admin/gitforge-admin/internal/integrations"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

var (
	// ErrMissingCredentials is returned when a credential is blank.
	ErrMissingCredentials = errors.New("account ID, access key ID and secret access key are required")

	// ErrAccountMismatch is returned when the keys belong to another account.
	ErrAccountMismatch = errors.New("credentials belong to another account")
)

// Credentials are the stored EKS settings.
type Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
}

// Identity is the caller identity returned by STS.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}

// Checker calls sts:GetCallerIdentity.
type Checker struct {
	region   string
	endpoint string
}

// NewChecker creates a checker for region. endpoint overrides the STS endpoint when set.
func NewChecker(region, endpoint string) *Checker {
	if region == "" {
		region = DefaultRegion
	}

	return &Checker{region: region, endpoint: endpoint}
}

// Check verifies that creds are valid and belong to creds.AccountID. The call is not retried.
func (c *Checker) Check(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.AccountID == "" || creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, ErrMissingCredentials
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := sts.NewFromConfig(cfg, func(o *sts.Options) {
		o.RetryMaxAttempts = 1

		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
		}
	})

	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integrations.ErrTestFailed, err)
	}

	id := &Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}

	if id.Account != creds.AccountID {
		return id, fmt.Errorf("%w: %s", ErrAccountMismatch, id.Account)
	}

	return id, nil
}
