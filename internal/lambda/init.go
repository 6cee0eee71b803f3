// Package lambda wires shared dependencies for the Lambda entry points.
package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/clearskies-aero/clearskies/internal/alert"
	"github.com/clearskies-aero/clearskies/internal/mail"
	"github.com/clearskies-aero/clearskies/internal/monitor"
	"github.com/clearskies-aero/clearskies/internal/queue"
	"github.com/clearskies-aero/clearskies/internal/reschedule"
	"github.com/clearskies-aero/clearskies/internal/secrets"
	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/internal/store/dynamodb"
	"github.com/clearskies-aero/clearskies/internal/weather"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Store      store.Store
	Monitor    *monitor.Service
	Queue      *queue.Manager
	Processor  *queue.Processor
	Dispatcher *alert.Dispatcher
	Logger     *slog.Logger
}

// Init creates shared dependencies from environment variables.
// Reads: TABLE_NAME, AWS_REGION, SECRETS_ARN, WEATHER_API_KEY,
// WEATHER_BASE_URL, OPENAI_API_KEY, OPENAI_MODEL, SES_FROM_ADDRESS,
// SNS_TOPIC_ARN, ALERT_WEBHOOK_URL, LOOKAHEAD_DAYS, QUEUE_BATCH_SIZE.
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	tableName := os.Getenv("TABLE_NAME")
	region := os.Getenv("AWS_REGION")
	if tableName == "" {
		return nil, fmt.Errorf("TABLE_NAME environment variable required")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}

	s, err := dynamodb.New(&types.DynamoDBConfig{
		TableName: tableName,
		Region:    region,
		Endpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB store: %w", err)
	}

	creds, err := secrets.Load(ctx, os.Getenv("SECRETS_ARN"))
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}
	if creds.WeatherAPIKey == "" {
		return nil, fmt.Errorf("weather API key not configured")
	}

	var weatherOpts []weather.Option
	if baseURL := os.Getenv("WEATHER_BASE_URL"); baseURL != "" {
		weatherOpts = append(weatherOpts, weather.WithBaseURL(baseURL))
	}
	weatherOpts = append(weatherOpts, weather.WithLogger(logger))
	fetcher := weather.NewClient(creds.WeatherAPIKey, weatherOpts...)

	dispatcher, err := newDispatcher()
	if err != nil {
		return nil, err
	}

	manager := queue.NewManager(s, queue.WithManagerLogger(logger))

	processorOpts := []queue.ProcessorOption{
		queue.WithDispatcher(dispatcher),
		queue.WithProcessorLogger(logger),
	}
	if from := os.Getenv("SES_FROM_ADDRESS"); from != "" {
		sender, err := mail.NewSESSender(from)
		if err != nil {
			return nil, fmt.Errorf("creating SES sender: %w", err)
		}
		processorOpts = append(processorOpts, queue.WithSender(sender))
	}
	if n := envInt("QUEUE_BATCH_SIZE"); n > 0 {
		processorOpts = append(processorOpts, queue.WithBatchSize(n))
	}
	processor := queue.NewProcessor(s, processorOpts...)

	monitorOpts := []monitor.Option{monitor.WithLogger(logger)}
	if creds.OpenAIAPIKey != "" {
		model := os.Getenv("OPENAI_MODEL")
		generator := reschedule.NewOpenAIGenerator(creds.OpenAIAPIKey, model, 0)
		suggester := reschedule.NewService(generator, s, generator.Model(), logger)
		monitorOpts = append(monitorOpts, monitor.WithSuggester(suggester))
	}
	if days := envInt("LOOKAHEAD_DAYS"); days > 0 {
		monitorOpts = append(monitorOpts, monitor.WithLookahead(days))
	}
	svc := monitor.New(s, fetcher, manager, monitorOpts...)

	return &Deps{
		Store:      s,
		Monitor:    svc,
		Queue:      manager,
		Processor:  processor,
		Dispatcher: dispatcher,
		Logger:     logger,
	}, nil
}

// newDispatcher assembles alert sinks from the environment. With nothing
// configured alerts go to the console so Lambda logs still capture them.
func newDispatcher() (*alert.Dispatcher, error) {
	var configs []types.AlertConfig
	if topicARN := os.Getenv("SNS_TOPIC_ARN"); topicARN != "" {
		configs = append(configs, types.AlertConfig{Type: types.AlertSNS, TopicARN: topicARN})
	}
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		configs = append(configs, types.AlertConfig{Type: types.AlertWebhook, URL: url})
	}
	if len(configs) == 0 {
		configs = append(configs, types.AlertConfig{Type: types.AlertConsole})
	}
	d, err := alert.NewDispatcher(configs)
	if err != nil {
		return nil, fmt.Errorf("creating alert dispatcher: %w", err)
	}
	return d, nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
