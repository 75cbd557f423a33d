package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"violation-service/internal/domain/violation"
	"violation-service/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type ViolationService struct {
	repo *repository.ViolationRepository
	log  zerolog.Logger
}

func NewViolationService(repo *repository.ViolationRepository, log zerolog.Logger) *ViolationService {
	return &ViolationService{
		repo: repo,
		log:  log,
	}
}

// RecordViolation validates and persists one labeled detection.
func (s *ViolationService) RecordViolation(ctx context.Context, rec *violation.Record) error {
	if rec.Filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if !rec.Label.Valid() {
		return fmt.Errorf("%w: unknown violation type %q", ErrInvalidInput, rec.Label)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be within [0,1]", ErrInvalidInput)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error().
			Err(err).
			Str("filename", rec.Filename).
			Str("violation_type", string(rec.Label)).
			Msg("failed to save violation")
		return fmt.Errorf("failed to save violation: %w", err)
	}

	s.log.Info().
		Int64("violation_id", rec.ID).
		Str("filename", rec.Filename).
		Str("violation_type", string(rec.Label)).
		Float64("confidence", rec.Confidence).
		Msg("saved violation to database")

	return nil
}

func (s *ViolationService) ListViolations(ctx context.Context, filename string, limit int) ([]violation.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var filter *string
	if filename != "" {
		filter = &filename
	}

	records, err := s.repo.Find(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return records, nil
}

func (s *ViolationService) GetStats(ctx context.Context) (violation.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute violation stats")
		return stats, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

func (s *ViolationService) DeleteViolation(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("violation_id", id).Msg("failed to delete violation")
		return fmt.Errorf("failed to delete violation: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: violation %d", ErrNotFound, id)
	}

	s.log.Info().Int64("violation_id", id).Msg("deleted violation")
	return nil
}
