package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

// setupTestDirs creates temp directories with dummy bootstrap files so CDK
// asset resolution succeeds without a real build.
func setupTestDirs(t *testing.T) StackConfig {
	t.Helper()
	tmp := t.TempDir()

	lambdaDir := filepath.Join(tmp, "lambda")
	handlers := []string{"api", "weather-check", "queue-processor"}
	for _, h := range handlers {
		dir := filepath.Join(lambdaDir, h)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bootstrap"), []byte("#!/bin/sh\n"), 0o755))
	}

	cfg := DefaultConfig()
	cfg.LambdaDistDir = lambdaDir
	return cfg
}

func synthTemplate(t *testing.T, cfg StackConfig) assertions.Template {
	t.Helper()
	app := awscdk.NewApp(nil)
	stack := NewClearSkiesStack(app, "TestStack", cfg)
	return assertions.Template_FromStack(stack, nil)
}

func TestDynamoDBTable(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]interface{}{
		"TableName": jsii.String("clearskies"),
		"KeySchema": &[]interface{}{
			map[string]interface{}{"AttributeName": jsii.String("PK"), "KeyType": jsii.String("HASH")},
			map[string]interface{}{"AttributeName": jsii.String("SK"), "KeyType": jsii.String("RANGE")},
		},
		"TimeToLiveSpecification": map[string]interface{}{
			"AttributeName": jsii.String("ttl"),
			"Enabled":       true,
		},
	})
}

func TestGSI1(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]interface{}{
		"GlobalSecondaryIndexes": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"IndexName": jsii.String("GSI1"),
				"KeySchema": &[]interface{}{
					map[string]interface{}{"AttributeName": jsii.String("GSI1PK"), "KeyType": jsii.String("HASH")},
					map[string]interface{}{"AttributeName": jsii.String("GSI1SK"), "KeyType": jsii.String("RANGE")},
				},
			}),
		}),
	})
}

func TestSNSTopic(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::SNS::Topic"), map[string]interface{}{
		"TopicName": jsii.String("clearskies-alerts"),
	})
}

func TestLambdaFunctionCount(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	// 3 handler functions + 1 CDK log-retention custom resource
	tmpl.ResourceCountIs(jsii.String("AWS::Lambda::Function"), jsii.Number(4))
}

func TestLambdaRuntimeAndArch(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	names := []string{"api", "weather-check", "queue-processor"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			tmpl.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]interface{}{
				"FunctionName": jsii.String("clearskies-" + name),
				"Runtime":      jsii.String("provided.al2023"),
				"Architectures": &[]interface{}{
					jsii.String("arm64"),
				},
				"Handler": jsii.String("bootstrap"),
			})
		})
	}
}

func TestScheduleRules(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	tmpl.HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"Name":               jsii.String("clearskies-sweep"),
		"ScheduleExpression": jsii.String("rate(1 hour)"),
	})
	tmpl.HasResourceProperties(jsii.String("AWS::Events::Rule"), map[string]interface{}{
		"Name":               jsii.String("clearskies-queue"),
		"ScheduleExpression": jsii.String("rate(15 minutes)"),
	})
}

func TestSecretsPermissionsWhenConfigured(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.SecretsARN = "arn:aws:secretsmanager:us-west-2:123456789012:secret:clearskies"
	tmpl := synthTemplate(t, cfg)

	tpl := tmpl.ToJSON()
	tplBytes, _ := json.Marshal(tpl)
	require.Contains(t, string(tplBytes), "secretsmanager:GetSecretValue")
}

func TestNoSESPermissionsWhenDisabled(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.SESFromAddress = ""
	tmpl := synthTemplate(t, cfg)

	tpl := tmpl.ToJSON()
	tplBytes, _ := json.Marshal(tpl)
	require.NotContains(t, string(tplBytes), "ses:SendEmail")
}

func TestSESPermissionsWhenEnabled(t *testing.T) {
	cfg := setupTestDirs(t)
	cfg.SESFromAddress = "no-reply@clearskies.app"
	tmpl := synthTemplate(t, cfg)

	tpl := tmpl.ToJSON()
	tplBytes, _ := json.Marshal(tpl)
	require.Contains(t, string(tplBytes), "ses:SendEmail")
}

func TestStackOutputs(t *testing.T) {
	cfg := setupTestDirs(t)
	tmpl := synthTemplate(t, cfg)

	tmpl.HasOutput(jsii.String("TableName"), map[string]interface{}{})
	tmpl.HasOutput(jsii.String("TopicArn"), map[string]interface{}{})
	tmpl.HasOutput(jsii.String("ApiFunctionArn"), map[string]interface{}{})
}
