package reschedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clearskies-aero/clearskies/internal/metrics"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// HistoryWriter persists validated generations under a booking.
type HistoryWriter interface {
	AppendReschedule(ctx context.Context, bookingID string, entry types.RescheduleEntry) error
}

// Service runs the generate, validate, persist sequence. Nothing is written
// unless validation passed, so the stored history only ever contains
// well-formed generations.
type Service struct {
	generator Generator
	history   HistoryWriter
	model     string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds a Service. The model string is recorded on persisted
// entries and should match what the generator uses.
func NewService(generator Generator, history HistoryWriter, model string, logger *slog.Logger) *Service {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		history:   history,
		model:     model,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateSuggestions produces one validated suggestion set for a blocked
// booking and appends it to the booking's reschedule history.
func (s *Service) GenerateSuggestions(ctx context.Context, req Request) (*types.SuggestionSet, error) {
	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.logger.Error("suggestion generation failed", "bookingId", req.BookingID, "error", err)
		return nil, err
	}

	parsed, err := ValidateSuggestionPayload(raw)
	if err != nil {
		metrics.SuggestionsRejected.Add(1)
		s.logger.Error("suggestion payload rejected", "bookingId", req.BookingID, "error", err)
		return nil, err
	}

	entry := types.RescheduleEntry{
		ID:            ulid.Make().String(),
		Explanation:   parsed.Explanation,
		Suggestions:   parsed.Suggestions,
		Model:         s.model,
		PromptVersion: PromptVersion,
		TrainingLevel: req.TrainingLevel,
		Violations:    req.Violations,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.history.AppendReschedule(ctx, req.BookingID, entry); err != nil {
		return nil, err
	}
	metrics.SuggestionsGenerated.Add(1)

	s.logger.Info("reschedule suggestions generated",
		"bookingId", req.BookingID,
		"model", s.model,
		"promptVersion", PromptVersion)
	return parsed, nil
}
