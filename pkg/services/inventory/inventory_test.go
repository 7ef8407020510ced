package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/emr"
	emrtypes "github.com/aws/aws-sdk-go-v2/service/emr/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

type mockEMR struct {
	mock.Mock
}

func (m *mockEMR) ListClusters(ctx context.Context, params *emr.ListClustersInput, _ ...func(*emr.Options)) (*emr.ListClustersOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emr.ListClustersOutput), args.Error(1)
}

func (m *mockEMR) ListBootstrapActions(ctx context.Context, params *emr.ListBootstrapActionsInput, _ ...func(*emr.Options)) (*emr.ListBootstrapActionsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emr.ListBootstrapActionsOutput), args.Error(1)
}

func (m *mockEMR) DescribeCluster(ctx context.Context, params *emr.DescribeClusterInput, _ ...func(*emr.Options)) (*emr.DescribeClusterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*emr.DescribeClusterOutput), args.Error(1)
}

func TestExplorer_ListClusters_FollowsMarker(t *testing.T) {
	client := new(mockEMR)
	client.On("ListClusters", mock.Anything, mock.MatchedBy(func(in *emr.ListClustersInput) bool {
		return in.Marker == nil
	})).Return(&emr.ListClustersOutput{
		Clusters: []emrtypes.ClusterSummary{{Id: aws.String("j-1"), ClusterArn: aws.String("arn:j-1"), Name: aws.String("etl")}},
		Marker:   aws.String("page-2"),
	}, nil).Once()
	client.On("ListClusters", mock.Anything, mock.MatchedBy(func(in *emr.ListClustersInput) bool {
		return aws.ToString(in.Marker) == "page-2"
	})).Return(&emr.ListClustersOutput{
		Clusters: []emrtypes.ClusterSummary{{Id: aws.String("j-2"), ClusterArn: aws.String("arn:j-2"), Name: aws.String("ml")}},
	}, nil).Once()

	clusters, err := NewExplorer(client).ListClusters(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Cluster{
		{ID: "j-1", Arn: "arn:j-1", Name: "etl"},
		{ID: "j-2", Arn: "arn:j-2", Name: "ml"},
	}, clusters)
	client.AssertExpectations(t)
}

func TestExplorer_ClusterConfig(t *testing.T) {
	t.Run("collects script paths", func(t *testing.T) {
		client := new(mockEMR)
		client.On("ListBootstrapActions", mock.Anything, mock.Anything).Return(&emr.ListBootstrapActionsOutput{
			BootstrapActions: []emrtypes.Command{
				{ScriptPath: aws.String("s3://other/setup.sh")},
				{ScriptPath: aws.String("s3://emr-boot-strap/harden.sh")},
			},
		}, nil)

		cfg, err := NewExplorer(client).ClusterConfig(context.Background(), "j-1")

		require.NoError(t, err)
		assert.Equal(t, []string{"s3://other/setup.sh", "s3://emr-boot-strap/harden.sh"}, cfg.BootstrapScripts)
	})

	t.Run("no actions is an empty config", func(t *testing.T) {
		client := new(mockEMR)
		client.On("ListBootstrapActions", mock.Anything, mock.Anything).Return(&emr.ListBootstrapActionsOutput{}, nil)

		cfg, err := NewExplorer(client).ClusterConfig(context.Background(), "j-1")

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Empty(t, cfg.BootstrapScripts)
	})

	t.Run("listing failure yields no config", func(t *testing.T) {
		client := new(mockEMR)
		client.On("ListBootstrapActions", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

		cfg, err := NewExplorer(client).ClusterConfig(context.Background(), "j-1")

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestExplorer_ClusterTags(t *testing.T) {
	client := new(mockEMR)
	client.On("DescribeCluster", mock.Anything, &emr.DescribeClusterInput{ClusterId: aws.String("j-1")}).
		Return(&emr.DescribeClusterOutput{Cluster: &emrtypes.Cluster{Tags: []emrtypes.Tag{
			{Key: aws.String(domain.TagPrimaryContact), Value: aws.String("ops@example.com")},
		}}}, nil)
	client.On("DescribeCluster", mock.Anything, &emr.DescribeClusterInput{ClusterId: aws.String("j-2")}).
		Return(nil, errors.New("cluster not found"))

	tags, err := NewExplorer(client).ClusterTags(context.Background(), "j-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{{Key: domain.TagPrimaryContact, Value: "ops@example.com"}}, tags)

	_, err = NewExplorer(client).ClusterTags(context.Background(), "j-2")
	assert.Error(t, err)
}

type mockSTS struct {
	mock.Mock
}

func (m *mockSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sts.GetCallerIdentityOutput), args.Error(1)
}

func TestCallerAccount(t *testing.T) {
	client := new(mockSTS)
	client.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(&sts.GetCallerIdentityOutput{Account: aws.String("111122223333")}, nil).Once()
	client.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(&sts.GetCallerIdentityOutput{}, nil).Once()

	account, err := CallerAccount(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "111122223333", account)

	_, err = CallerAccount(context.Background(), client)
	assert.Error(t, err)
}

type mockEC2 struct {
	mock.Mock
}

func (m *mockEC2) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, _ ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ec2.DescribeRegionsOutput), args.Error(1)
}

func TestEnabledRegions(t *testing.T) {
	client := new(mockEC2)
	client.On("DescribeRegions", mock.Anything, mock.Anything).Return(&ec2.DescribeRegionsOutput{
		Regions: []ec2types.Region{{RegionName: aws.String("us-east-1")}, {RegionName: aws.String("eu-west-1")}, {}},
	}, nil)

	regions, err := EnabledRegions(context.Background(), client)

	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, regions)
}
