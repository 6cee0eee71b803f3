package types

// AlertConfig defines an alert sink configuration.
type AlertConfig struct {
	Type     AlertType `yaml:"type" json:"type"`
	URL      string    `yaml:"url,omitempty" json:"url,omitempty"`
	TopicARN string    `yaml:"topicArn,omitempty" json:"topicArn,omitempty"`
}

// DynamoDBConfig holds DynamoDB connection and table settings.
type DynamoDBConfig struct {
	TableName string `yaml:"tableName" json:"tableName"`
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// WeatherConfig holds the upstream weather provider settings. The API key is
// resolved from the environment or Secrets Manager, never from the file.
type WeatherConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	RequestTimeout string `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"` // e.g. "10s"
}

// RescheduleConfig holds the AI reschedule generator settings.
type RescheduleConfig struct {
	Model          string `yaml:"model,omitempty" json:"model,omitempty"`
	RequestTimeout string `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"` // e.g. "15s"
}

// MailConfig holds outbound email settings.
type MailConfig struct {
	FromAddress string `yaml:"fromAddress" json:"fromAddress"`
	FromName    string `yaml:"fromName,omitempty" json:"fromName,omitempty"`
	BaseURL     string `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"` // dashboard link base for action URLs
}

// QueueConfig tunes the notification queue processor.
type QueueConfig struct {
	BatchSize   int    `yaml:"batchSize,omitempty" json:"batchSize,omitempty"`     // default 20
	MaxAttempts int    `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty"` // default 3
	RetryDelay  string `yaml:"retryDelay,omitempty" json:"retryDelay,omitempty"`   // base delay, default "8h"
}

// MonitorConfig tunes the scheduled weather sweep.
type MonitorConfig struct {
	LookaheadDays int `yaml:"lookaheadDays,omitempty" json:"lookaheadDays,omitempty"` // default 7
	Concurrency   int `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`     // default 4
}

// ProjectConfig represents the top-level clearskies.yaml configuration.
type ProjectConfig struct {
	DynamoDB   *DynamoDBConfig   `yaml:"dynamodb"`
	Weather    *WeatherConfig    `yaml:"weather,omitempty"`
	Reschedule *RescheduleConfig `yaml:"reschedule,omitempty"`
	Mail       *MailConfig       `yaml:"mail,omitempty"`
	Queue      *QueueConfig      `yaml:"queue,omitempty"`
	Monitor    *MonitorConfig    `yaml:"monitor,omitempty"`
	Alerts     []AlertConfig     `yaml:"alerts,omitempty"`
	SecretsARN string            `yaml:"secretsArn,omitempty" json:"secretsArn,omitempty"`
}
