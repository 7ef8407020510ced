package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/emr"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

type EMRAPI interface {
	emr.ListClustersAPIClient
	emr.ListBootstrapActionsAPIClient
	DescribeCluster(ctx context.Context, params *emr.DescribeClusterInput, optFns ...func(*emr.Options)) (*emr.DescribeClusterOutput, error)
}

// Explorer lists the clusters of one account and reads the parts of their
// configuration the audit needs.
type Explorer interface {
	ListClusters(ctx context.Context) ([]domain.Cluster, error)
	ClusterConfig(ctx context.Context, clusterID string) (*domain.ResourceConfig, error)
	ClusterTags(ctx context.Context, clusterID string) ([]domain.Tag, error)
}

type emrExplorer struct {
	client EMRAPI
}

func NewExplorer(client EMRAPI) Explorer {
	return &emrExplorer{client: client}
}

func (e *emrExplorer) ListClusters(ctx context.Context) ([]domain.Cluster, error) {
	var clusters []domain.Cluster

	paginator := emr.NewListClustersPaginator(e.client, &emr.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list clusters: %w", err)
		}
		for _, c := range page.Clusters {
			clusters = append(clusters, domain.Cluster{
				ID:   aws.ToString(c.Id),
				Arn:  aws.ToString(c.ClusterArn),
				Name: aws.ToString(c.Name),
			})
		}
	}

	return clusters, nil
}

// ClusterConfig collects every bootstrap action script path of the cluster.
// An error means the configuration is unknown, not that it is empty.
func (e *emrExplorer) ClusterConfig(ctx context.Context, clusterID string) (*domain.ResourceConfig, error) {
	cfg := &domain.ResourceConfig{BootstrapScripts: []string{}}

	paginator := emr.NewListBootstrapActionsPaginator(e.client, &emr.ListBootstrapActionsInput{
		ClusterId: aws.String(clusterID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bootstrap actions of %s: %w", clusterID, err)
		}
		for _, action := range page.BootstrapActions {
			cfg.BootstrapScripts = append(cfg.BootstrapScripts, aws.ToString(action.ScriptPath))
		}
	}

	return cfg, nil
}

func (e *emrExplorer) ClusterTags(ctx context.Context, clusterID string) ([]domain.Tag, error) {
	out, err := e.client.DescribeCluster(ctx, &emr.DescribeClusterInput{ClusterId: aws.String(clusterID)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe cluster %s: %w", clusterID, err)
	}
	if out.Cluster == nil {
		return nil, nil
	}

	tags := make([]domain.Tag, 0, len(out.Cluster.Tags))
	for _, t := range out.Cluster.Tags {
		tags = append(tags, domain.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}
	return tags, nil
}
