package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/spacesedan/feedbackflow/config"
)

var (
	awsCfg  aws.Config
	awsErr  error
	awsOnce sync.Once
)

// GetAWSConfig loads the shared AWS config once per process.
func GetAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsOnce.Do(func() {
		slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", region))

		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			awsErr = fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
			return
		}

		awsCfg = cfg
		slog.Info("[AWSClient] AWS Config Initialized")
	})

	return awsCfg, awsErr
}

// NewDynamoDBClient builds a DynamoDB client. A configured endpoint (for
// DynamoDB Local) overrides the regional one.
func NewDynamoDBClient(ctx context.Context, cfg config.StoreConfig) (*dynamodb.Client, error) {
	base, err := GetAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(base, func(o *dynamodb.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	}), nil
}
