package main

// StackConfig holds configuration for the ClearSkies CDK stack.
type StackConfig struct {
	TableName        string
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	LogRetentionDays float64

	// SecretsARN points at the JSON secret holding provider API keys.
	// Empty means the Lambdas rely on plain environment variables.
	SecretsARN string

	// SESFromAddress enables outbound email when set.
	SESFromAddress string

	// SweepSchedule and QueueSchedule are EventBridge rate/cron expressions.
	SweepSchedule string
	QueueSchedule string

	DestroyOnDelete bool
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		TableName:        "clearskies",
		MemorySize:       256,
		Timeout:          120,
		LambdaDistDir:    "../dist/lambda",
		LogRetentionDays: 7,
		SweepSchedule:    "rate(1 hour)",
		QueueSchedule:    "rate(15 minutes)",
	}
}
