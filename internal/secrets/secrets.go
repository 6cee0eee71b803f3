// Package secrets resolves provider credentials from the environment, with
// AWS Secrets Manager as the fallback for deployed environments.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Values holds the resolved credentials.
type Values struct {
	WeatherAPIKey string `json:"weatherApiKey"`
	OpenAIAPIKey  string `json:"openaiApiKey"`
}

// SecretsAPI is the subset of the Secrets Manager client used by Load.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Option configures Load.
type Option func(*loader)

// WithClient sets a custom Secrets Manager client (useful for testing).
func WithClient(c SecretsAPI) Option {
	return func(l *loader) { l.client = c }
}

type loader struct {
	client SecretsAPI
}

// Load resolves credentials. Environment variables WEATHER_API_KEY and
// OPENAI_API_KEY take precedence; missing values are filled from the JSON
// secret at arn when one is configured. An empty arn with missing env vars is
// not an error; callers decide which credentials are mandatory.
func Load(ctx context.Context, arn string, opts ...Option) (*Values, error) {
	values := &Values{
		WeatherAPIKey: os.Getenv("WEATHER_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
	}
	if arn == "" || (values.WeatherAPIKey != "" && values.OpenAIAPIKey != "") {
		return values, nil
	}

	l := &loader{}
	for _, o := range opts {
		o(l)
	}
	if l.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		l.client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &arn,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching secret %s: %w", arn, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string payload", arn)
	}

	var stored Values
	if err := json.Unmarshal([]byte(*out.SecretString), &stored); err != nil {
		return nil, fmt.Errorf("parsing secret %s: %w", arn, err)
	}

	if values.WeatherAPIKey == "" {
		values.WeatherAPIKey = stored.WeatherAPIKey
	}
	if values.OpenAIAPIKey == "" {
		values.OpenAIAPIKey = stored.OpenAIAPIKey
	}
	return values, nil
}
