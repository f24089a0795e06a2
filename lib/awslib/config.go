package awslib

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

type ConfigArgs struct {
	Region string
	// Both keys need to be set to override the default credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

func NewConfig(ctx context.Context, args ConfigArgs) (aws.Config, error) {
	region := cmp.Or(args.Region, os.Getenv("AWS_REGION"))
	optFns := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if args.AccessKeyID != "" && args.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(args.AccessKeyID, args.SecretAccessKey, "")
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed loading aws config: %w", err)
	}

	return cfg, nil
}
