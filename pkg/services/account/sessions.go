package account

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/emr"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/findings"
	"github.com/de-tools/compliance-atlas/pkg/services/inventory"
	hubfindings "github.com/de-tools/compliance-atlas/pkg/store/securityhub/findings"
)

// Clients are the per-account collaborators of an audit pass. All of them act
// with the same credentials.
type Clients struct {
	Identity  inventory.IdentityAPI
	Regions   inventory.RegionsAPI
	Inventory inventory.Explorer
	Sink      findings.Sink
}

type SessionFactory interface {
	Open(ctx context.Context, acct domain.AccountContext) (*Clients, error)
}

type Settings struct {
	// HubAccountID is the account the base credentials belong to
	HubAccountID string
	// Role is assumed in every other account
	Role string
}

type assumeRoleFactory struct {
	base     aws.Config
	settings Settings
}

func NewSessionFactory(base aws.Config, settings Settings) SessionFactory {
	return &assumeRoleFactory{base: base, settings: settings}
}

func RoleArn(partition, accountID, role string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, role)
}

func SessionName(role, accountID string) string {
	return fmt.Sprintf("%s_acct_%s", role, accountID)
}

func (f *assumeRoleFactory) Open(_ context.Context, acct domain.AccountContext) (*Clients, error) {
	cfg, err := f.config(acct)
	if err != nil {
		return nil, err
	}

	sink, err := hubfindings.NewSink(securityhub.NewFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &Clients{
		Identity:  sts.NewFromConfig(cfg),
		Regions:   ec2.NewFromConfig(cfg),
		Inventory: inventory.NewExplorer(emr.NewFromConfig(cfg)),
		Sink:      sink,
	}, nil
}

// config derives the account configuration. The hub account keeps the base
// credentials; any other account gets cached assumed-role credentials.
func (f *assumeRoleFactory) config(acct domain.AccountContext) (aws.Config, error) {
	cfg := f.base.Copy()
	if acct.Region != "" {
		cfg.Region = acct.Region
	}
	if acct.ID == f.settings.HubAccountID {
		return cfg, nil
	}
	if f.settings.Role == "" {
		return aws.Config{}, fmt.Errorf("no cross-account role configured for account %s", acct.ID)
	}

	provider := stscreds.NewAssumeRoleProvider(
		sts.NewFromConfig(f.base),
		RoleArn(acct.Partition, acct.ID, f.settings.Role),
		func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = SessionName(f.settings.Role, acct.ID)
		},
	)
	cfg.Credentials = aws.NewCredentialsCache(provider)
	return cfg, nil
}
