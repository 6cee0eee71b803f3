// Package commands implements the clearskies CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clearskies-aero/clearskies/internal/alert"
	"github.com/clearskies-aero/clearskies/internal/config"
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

// runtime bundles the services a CLI invocation works with.
type runtime struct {
	store     store.Store
	monitor   *monitor.Service
	queue     *queue.Manager
	processor *queue.Processor
	logger    *slog.Logger
}

func loadConfig() (*types.ProjectConfig, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildRuntime wires the full service stack from clearskies.yaml and
// environment credentials.
func buildRuntime(ctx context.Context, cfg *types.ProjectConfig) (*runtime, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	s, err := dynamodb.New(cfg.DynamoDB)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	creds, err := secrets.Load(ctx, cfg.SecretsARN)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}
	if creds.WeatherAPIKey == "" {
		return nil, fmt.Errorf("weather API key not configured; set WEATHER_API_KEY or secretsArn")
	}

	weatherOpts := []weather.Option{weather.WithLogger(logger)}
	if cfg.Weather != nil && cfg.Weather.BaseURL != "" {
		weatherOpts = append(weatherOpts, weather.WithBaseURL(cfg.Weather.BaseURL))
	}
	fetcher := weather.NewClient(creds.WeatherAPIKey, weatherOpts...)

	alertConfigs := cfg.Alerts
	if len(alertConfigs) == 0 {
		alertConfigs = []types.AlertConfig{{Type: types.AlertConsole}}
	}
	dispatcher, err := alert.NewDispatcher(alertConfigs)
	if err != nil {
		return nil, fmt.Errorf("creating alert dispatcher: %w", err)
	}

	manager := queue.NewManager(s, queue.WithManagerLogger(logger))

	processorOpts := []queue.ProcessorOption{
		queue.WithDispatcher(dispatcher),
		queue.WithProcessorLogger(logger),
	}
	if cfg.Mail != nil && cfg.Mail.FromAddress != "" {
		from := cfg.Mail.FromAddress
		if cfg.Mail.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.Mail.FromName, cfg.Mail.FromAddress)
		}
		sender, err := mail.NewSESSender(from)
		if err != nil {
			return nil, fmt.Errorf("creating SES sender: %w", err)
		}
		processorOpts = append(processorOpts, queue.WithSender(sender))
	}
	if cfg.Queue != nil {
		if cfg.Queue.BatchSize > 0 {
			processorOpts = append(processorOpts, queue.WithBatchSize(cfg.Queue.BatchSize))
		}
		if cfg.Queue.MaxAttempts > 0 && cfg.Queue.RetryDelay != "" {
			delay, err := time.ParseDuration(cfg.Queue.RetryDelay)
			if err != nil {
				return nil, fmt.Errorf("queue.retryDelay: %w", err)
			}
			processorOpts = append(processorOpts, queue.WithRetryPolicy(cfg.Queue.MaxAttempts, delay))
		}
	}
	processor := queue.NewProcessor(s, processorOpts...)

	monitorOpts := []monitor.Option{monitor.WithLogger(logger)}
	if creds.OpenAIAPIKey != "" {
		model := ""
		if cfg.Reschedule != nil {
			model = cfg.Reschedule.Model
		}
		generator := reschedule.NewOpenAIGenerator(creds.OpenAIAPIKey, model, 0)
		suggester := reschedule.NewService(generator, s, generator.Model(), logger)
		monitorOpts = append(monitorOpts, monitor.WithSuggester(suggester))
	}
	if cfg.Monitor != nil {
		if cfg.Monitor.LookaheadDays > 0 {
			monitorOpts = append(monitorOpts, monitor.WithLookahead(cfg.Monitor.LookaheadDays))
		}
		if cfg.Monitor.Concurrency > 0 {
			monitorOpts = append(monitorOpts, monitor.WithConcurrency(cfg.Monitor.Concurrency))
		}
	}
	svc := monitor.New(s, fetcher, manager, monitorOpts...)

	return &runtime{
		store:     s,
		monitor:   svc,
		queue:     manager,
		processor: processor,
		logger:    logger,
	}, nil
}
