package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
	"workclock.service/internal/config"
)

// NewAWSConfig creates a new AWS configuration, pointing to LocalStack if an endpoint is provided.
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	if appConfig.IsLocalDev {
		log.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Local development mode detected. Routing AWS calls to LocalStack.")

		opts := []func(*awsConfig.LoadOptions) error{
			awsConfig.WithRegion(appConfig.AWSRegion),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		}
		// Every service client (SQS, SES) is sent to the same LocalStack edge port.
		if appConfig.AWSEndpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(appConfig.AWSEndpoint))
		}
		return awsConfig.LoadDefaultConfig(ctx, opts...)
	}

	// For non-local environments, use the standard AWS SDK config loading.
	// This will automatically use credentials from the environment (e.g., IAM role for service accounts).
	log.Info().Msg("Production mode detected. Using standard AWS credential chain.")
	return awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(appConfig.AWSRegion))
}
