package main

import (
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

func NewClearSkiesStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// DynamoDB table. Single-table layout: PK/SK plus GSI1 for the
	// scheduled-bookings and due-queue access paths.
	table := awsdynamodb.NewTableV2(stack, jsii.String("Table"), &awsdynamodb.TablePropsV2{
		TableName: jsii.String(cfg.TableName),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("PK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("SK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		Billing:             awsdynamodb.Billing_OnDemand(nil),
		TimeToLiveAttribute: jsii.String("ttl"),
		RemovalPolicy:       removalPolicy(cfg.DestroyOnDelete),
		GlobalSecondaryIndexes: &[]*awsdynamodb.GlobalSecondaryIndexPropsV2{
			{
				IndexName: jsii.String("GSI1"),
				PartitionKey: &awsdynamodb.Attribute{
					Name: jsii.String("GSI1PK"),
					Type: awsdynamodb.AttributeType_STRING,
				},
				SortKey: &awsdynamodb.Attribute{
					Name: jsii.String("GSI1SK"),
					Type: awsdynamodb.AttributeType_STRING,
				},
			},
		},
	})

	// SNS topic for operator alerts (exhausted notification retries).
	topic := awssns.NewTopic(stack, jsii.String("AlertTopic"), &awssns.TopicProps{
		TopicName: jsii.String(cfg.TableName + "-alerts"),
	})

	commonEnv := &map[string]*string{
		"TABLE_NAME":    table.TableName(),
		"SNS_TOPIC_ARN": topic.TopicArn(),
	}
	if cfg.SecretsARN != "" {
		(*commonEnv)["SECRETS_ARN"] = jsii.String(cfg.SecretsARN)
	}
	if cfg.SESFromAddress != "" {
		(*commonEnv)["SES_FROM_ADDRESS"] = jsii.String(cfg.SESFromAddress)
	}

	timeout := awscdk.Duration_Seconds(jsii.Number(cfg.Timeout))
	memorySize := jsii.Number(cfg.MemorySize)
	logRetention := logRetentionDays(cfg.LogRetentionDays)

	makeFn := func(name string) awslambda.Function {
		return awslambda.NewFunction(stack, jsii.String(name), &awslambda.FunctionProps{
			FunctionName: jsii.String(cfg.TableName + "-" + name),
			Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
			Handler:      jsii.String("bootstrap"),
			Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, name)), nil),
			Architecture: awslambda.Architecture_ARM_64(),
			MemorySize:   memorySize,
			Timeout:      timeout,
			Environment:  commonEnv,
			LogRetention: logRetention,
		})
	}

	apiFn := makeFn("api")
	weatherCheckFn := makeFn("weather-check")
	queueProcessorFn := makeFn("queue-processor")

	// IAM grants.
	table.GrantReadWriteData(apiFn)
	table.GrantReadWriteData(weatherCheckFn)
	table.GrantReadWriteData(queueProcessorFn)

	topic.GrantPublish(queueProcessorFn)
	topic.GrantPublish(weatherCheckFn)

	if cfg.SecretsARN != "" {
		secretRead := awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   &[]*string{jsii.String("secretsmanager:GetSecretValue")},
			Resources: &[]*string{jsii.String(cfg.SecretsARN)},
		})
		apiFn.AddToRolePolicy(secretRead)
		weatherCheckFn.AddToRolePolicy(secretRead)
		queueProcessorFn.AddToRolePolicy(secretRead)
	}

	if cfg.SESFromAddress != "" {
		queueProcessorFn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   &[]*string{jsii.String("ses:SendEmail")},
			Resources: &[]*string{jsii.String("*")},
		}))
	}

	// Schedules: hourly safety sweep, frequent queue drain.
	awsevents.NewRule(stack, jsii.String("SweepSchedule"), &awsevents.RuleProps{
		RuleName: jsii.String(cfg.TableName + "-sweep"),
		Schedule: awsevents.Schedule_Expression(jsii.String(cfg.SweepSchedule)),
		Targets: &[]awsevents.IRuleTarget{
			awseventstargets.NewLambdaFunction(weatherCheckFn, nil),
		},
	})
	awsevents.NewRule(stack, jsii.String("QueueSchedule"), &awsevents.RuleProps{
		RuleName: jsii.String(cfg.TableName + "-queue"),
		Schedule: awsevents.Schedule_Expression(jsii.String(cfg.QueueSchedule)),
		Targets: &[]awsevents.IRuleTarget{
			awseventstargets.NewLambdaFunction(queueProcessorFn, nil),
		},
	})

	// Stack outputs.
	awscdk.NewCfnOutput(stack, jsii.String("TableName"), &awscdk.CfnOutputProps{
		Value: table.TableName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("TopicArn"), &awscdk.CfnOutputProps{
		Value: topic.TopicArn(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("ApiFunctionArn"), &awscdk.CfnOutputProps{
		Value: apiFn.FunctionArn(),
	})

	return stack
}

func removalPolicy(destroy bool) awscdk.RemovalPolicy {
	if destroy {
		return awscdk.RemovalPolicy_DESTROY
	}
	return awscdk.RemovalPolicy_RETAIN
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 5:
		return awslogs.RetentionDays_FIVE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 60:
		return awslogs.RetentionDays_TWO_MONTHS
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
