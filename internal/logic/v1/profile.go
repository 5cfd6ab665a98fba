package v1

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
	"github.com/wuzamanfou/smart-brain-api/internal/vision"
	"github.com/wuzamanfou/smart-brain-api/middleware"
)

// FaceDetector is the wrapped third-party vision API.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageURL string) (*vision.Response, error)
}

// ProfileService implements per-user profile reads/updates, the detection
// counter and the wrapped vision API call.
type ProfileService struct {
	profiles domain.ProfileRepository
	detector FaceDetector
}

// NewProfileService creates a new ProfileService with the given dependencies.
func NewProfileService(profiles domain.ProfileRepository, detector FaceDetector) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		detector: detector,
	}
}

// Get returns the user with the given id.
func (s *ProfileService) Get(ctx context.Context, id int) (*domain.UserRow, error) {
	ctx, span := middleware.StartSpan(ctx, "profile.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	user, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}
	if user == nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, ErrUserNotFound)
	}

	return user, nil
}

// Update applies the mutable profile fields to the user.
func (s *ProfileService) Update(ctx context.Context, id int, upd domain.ProfileUpdate) error {
	ctx, span := middleware.StartSpan(ctx, "profile.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	ok, err := s.profiles.Update(ctx, id, upd)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("update user %d: %w", id, ErrUserNotFound)
	}

	return nil
}

// RecordDetection bumps the user's entries counter and returns the new value.
func (s *ProfileService) RecordDetection(ctx context.Context, id int) (int, error) {
	ctx, span := middleware.StartSpan(ctx, "profile.record_detection", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", id),
	))
	defer span.End()

	entries, ok, err := s.profiles.IncrementEntries(ctx, id)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("increment entries for user %d: %w", id, err)
	}
	if !ok {
		return 0, fmt.Errorf("increment entries for user %d: %w", id, ErrUserNotFound)
	}

	span.SetAttributes(attribute.Int("user.entries", entries))
	return entries, nil
}

// DetectFaces relays the image URL to the vision API and returns its outputs.
func (s *ProfileService) DetectFaces(ctx context.Context, imageURL string) (*vision.Response, error) {
	ctx, span := middleware.StartSpan(ctx, "profile.detect_faces", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	resp, err := s.detector.DetectFaces(ctx, imageURL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	return resp, nil
}
