package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if name := os.Getenv("CLEARSKIES_TABLE_NAME"); name != "" {
		cfg.TableName = name
	}
	if arn := os.Getenv("CLEARSKIES_SECRETS_ARN"); arn != "" {
		cfg.SecretsARN = arn
	}
	if from := os.Getenv("CLEARSKIES_SES_FROM"); from != "" {
		cfg.SESFromAddress = from
	}
	cfg.DestroyOnDelete = os.Getenv("CLEARSKIES_DESTROY_ON_DELETE") == "true"

	stackName := "ClearSkiesStack"
	if name := os.Getenv("CLEARSKIES_STACK_NAME"); name != "" {
		stackName = name
	}

	NewClearSkiesStack(app, stackName, cfg)
	app.Synth(nil)
}
