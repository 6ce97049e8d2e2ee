package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdms/pdms/internal/platform/events"
	"github.com/pdms/pdms/internal/platform/predictionlog"
)

// Service derives features from customer input and scores them. It holds
// no state between requests.
type Service struct {
	clf    Classifier
	audit  predictionlog.Recorder
	events events.Publisher
	logger zerolog.Logger
}

func NewService(clf Classifier, audit predictionlog.Recorder, pub events.Publisher, logger zerolog.Logger) *Service {
	if audit == nil {
		audit = predictionlog.Nop{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		clf:    clf,
		audit:  audit,
		events: pub,
		logger: logger.With().Str("component", "scoring").Logger(),
	}
}

func (s *Service) ModelVersion() string { return s.clf.Version() }

// Features validates the input and returns the derived classifier row.
func (s *Service) Features(in UserInput) (Features, error) {
	c, err := in.Customer()
	if err != nil {
		return Features{}, err
	}
	return Derive(c), nil
}

// Predict validates, derives and scores a customer. requestID ties the
// audit entry and event back to the HTTP request.
func (s *Service) Predict(ctx context.Context, requestID string, in UserInput) (*Result, error) {
	f, err := s.Features(in)
	if err != nil {
		return nil, err
	}

	p, err := s.clf.Predict(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	res := &Result{
		Message:           fmt.Sprintf("Customer is selected for %s category", p.Label),
		PredictedCategory: p.Label,
		Confidence:        p.Confidence,
		ModelVersion:      s.clf.Version(),
		Features:          f,
	}

	if err := s.audit.Record(ctx, predictionlog.Entry{
		RequestID:    requestID,
		Label:        p.Label,
		Confidence:   p.Confidence,
		ModelVersion: res.ModelVersion,
		Features:     f,
	}); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("prediction log write failed")
	}

	e := events.New(events.PredictionMade, requestID, map[string]interface{}{
		"category":      p.Label,
		"confidence":    p.Confidence,
		"model_version": res.ModelVersion,
		"city_tier":     f.CityTier,
	})
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("event", e.Type).Str("request_id", requestID).Msg("event publish failed")
	}
	return res, nil
}
