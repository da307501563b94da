// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager resolves sensitive configuration values at startup.
// Production points it at AWS Secrets Manager; everything else runs off
// plain environment variables and never constructs one.
type SecretsManager interface {
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

// AWSSecretsManager reads a single JSON secret holding all sensitive
// keys for the service and caches the parsed document briefly.
type AWSSecretsManager struct {
	client     *secretsmanager.Client
	secretName string
	logger     *slog.Logger

	mu        sync.RWMutex
	values    map[string]string
	fetchedAt time.Time
	ttl       time.Duration
}

// NewAWSSecretsManager builds a client for the named secret. The secret
// name conventionally matches the application name.
func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsManager{
		client:     secretsmanager.NewFromConfig(cfg),
		secretName: secretName,
		logger:     logger,
		ttl:        5 * time.Minute,
	}, nil
}

// GetSecrets returns the requested keys, fetching the secret document
// from AWS when the cache is stale. Keys absent from the document are
// omitted from the result rather than treated as errors.
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.mu.RLock()
	fresh := sm.values != nil && time.Since(sm.fetchedAt) < sm.ttl
	values := sm.values
	sm.mu.RUnlock()

	if !fresh {
		var err error
		values, err = sm.fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := values[key]; ok {
			out[key] = v
		} else {
			sm.logger.Warn("secret key not found",
				slog.String("secret_name", sm.secretName),
				slog.String("key", key))
		}
	}
	return out, nil
}

func (sm *AWSSecretsManager) fetch(ctx context.Context) (map[string]string, error) {
	sm.logger.Info("fetching secrets from AWS Secrets Manager",
		slog.String("secret_name", sm.secretName))

	result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string payload", sm.secretName)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &values); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	sm.mu.Lock()
	sm.values = values
	sm.fetchedAt = time.Now()
	sm.mu.Unlock()

	return values, nil
}

// ApplySecrets overlays values from the secrets manager onto the config.
// Missing keys keep their environment-derived values.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretsManager) error {
	secrets, err := sm.GetSecrets(ctx, []string{"DB_PASSWORD", "JWT_SECRET", "REDIS_PASSWORD"})
	if err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}

	if v, ok := secrets["DB_PASSWORD"]; ok {
		c.Database.Password = v
	}
	if v, ok := secrets["JWT_SECRET"]; ok {
		c.Security.JWTSecret = v
	}
	if v, ok := secrets["REDIS_PASSWORD"]; ok {
		c.Redis.Password = v
		c.Asynq.RedisPassword = v
	}

	return nil
}
