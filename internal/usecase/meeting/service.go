package meeting

import (
	"context"
	"encoding/json"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/internal/domain/entities"
	"github.com/johnquangdev/meeting-functions/internal/domain/repositories"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/vexa"
)

const (
	startGuardPrefix     = "bot-start:"
	failureWriteTimeout  = 10 * time.Second
	failureWriteAttempts = 3
)

// Service defines the meeting bot operations
type Service interface {
	StartBot(ctx context.Context, in StartBotInput) (json.RawMessage, error)
	FetchTranscript(ctx context.Context, in FetchTranscriptInput) (*FetchTranscriptResult, error)
}

// BotGateway is the subset of the bot gateway client the service uses
type BotGateway interface {
	StartBot(ctx context.Context, req vexa.StartBotRequest) (*vexa.StartBotResponse, error)
	GetTranscript(ctx context.Context, platform, nativeID string) (*vexa.Transcript, error)
	StopBot(ctx context.Context, platform, nativeID string) error
}

// StartGuard claims a key for a window so concurrent duplicate starts can be refused
type StartGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TranscriptArchiver keeps a copy of raw transcripts outside the database
type TranscriptArchiver interface {
	ArchiveTranscript(ctx context.Context, meetingID, transcript string) (string, error)
}

// StartBotInput is the input of StartBot
type StartBotInput struct {
	MeetingURL string
	MeetingID  string
}

// FetchTranscriptInput is the input of FetchTranscript
type FetchTranscriptInput struct {
	MeetingURL string
	MeetingID  string
}

// FetchTranscriptResult carries the transcript text and an optional note about the bot stop
type FetchTranscriptResult struct {
	Transcript string
	Message    string
}

type service struct {
	gateway  BotGateway
	repo     repositories.MeetingRepository
	guard    StartGuard
	archiver TranscriptArchiver
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes the service
type Option func(*service)

// WithStartGuard enables duplicate start suppression
func WithStartGuard(g StartGuard) Option {
	return func(s *service) { s.guard = g }
}

// WithArchiver enables transcript archiving
func WithArchiver(a TranscriptArchiver) Option {
	return func(s *service) { s.archiver = a }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService constructs the meeting service
func NewService(gateway BotGateway, repo repositories.MeetingRepository, cfg *config.Config, logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		gateway: gateway,
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartBot sends a transcription bot into the meeting and records the start time.
// A start claim is kept only when the gateway accepted the bot and the start was
// recorded; any other outcome releases it so a corrected retry is not refused.
func (s *service) StartBot(ctx context.Context, in StartBotInput) (json.RawMessage, error) {
	if err := ValidateMeetingURL(in.MeetingURL); err != nil {
		return nil, err
	}
	nativeID := NativeMeetingID(in.MeetingURL)

	guardKey := startGuardPrefix + in.MeetingID
	claimed, err := s.claimStart(ctx, guardKey, in.MeetingID)
	if err != nil {
		return nil, err
	}

	keepClaim := false
	defer func() {
		if claimed && !keepClaim {
			s.releaseStart(ctx, guardKey, in.MeetingID)
		}
	}()

	resp, err := s.gateway.StartBot(ctx, vexa.StartBotRequest{
		Platform:        vexa.PlatformGoogleMeet,
		NativeMeetingID: nativeID,
		BotName:         s.cfg.Vexa.BotName,
	})
	if err != nil {
		return nil, err
	}

	if err = s.repo.MarkBotStarted(ctx, in.MeetingID, s.now()); err != nil {
		return nil, apperrors.ErrDBQueryFailed("mark bot started", err)
	}

	keepClaim = !resp.Rejected()

	s.logger.Info("bot started",
		zap.String("meeting_id", in.MeetingID),
		zap.String("native_meeting_id", nativeID),
		zap.Int("gateway_status", resp.Status),
	)
	return resp.Body, nil
}

func (s *service) releaseStart(ctx context.Context, key, meetingID string) {
	if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to release bot start claim", zap.String("meeting_id", meetingID), zap.Error(err))
	}
}

// claimStart reports whether a claim was taken. Guard failures are logged and
// the start proceeds unguarded.
func (s *service) claimStart(ctx context.Context, key, meetingID string) (bool, error) {
	window := s.cfg.BotStart.DedupWindow
	if s.guard == nil || window <= 0 {
		return false, nil
	}

	acquired, err := s.guard.Acquire(ctx, key, window)
	if err != nil {
		s.logger.Warn("bot start guard unavailable", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	if !acquired {
		return false, apperrors.ErrBotStartInProgress(meetingID)
	}
	return true, nil
}

// FetchTranscript retrieves the finished transcript, stops the bot and stores the
// transcript. Every attempt leaves transcription_attempted_at set.
func (s *service) FetchTranscript(ctx context.Context, in FetchTranscriptInput) (result *FetchTranscriptResult, err error) {
	if err := ValidateMeetingURL(in.MeetingURL); err != nil {
		return nil, err
	}
	nativeID := NativeMeetingID(in.MeetingURL)

	defer func() {
		if err != nil {
			s.recordFailure(ctx, in.MeetingID, err)
		}
	}()

	transcript, err := s.gateway.GetTranscript(ctx, vexa.PlatformGoogleMeet, nativeID)
	if err != nil {
		return nil, err
	}

	var message string
	if stopErr := s.gateway.StopBot(ctx, vexa.PlatformGoogleMeet, nativeID); stopErr != nil {
		s.logger.Warn("failed to stop bot after transcript fetch",
			zap.String("meeting_id", in.MeetingID),
			zap.String("native_meeting_id", nativeID),
			zap.Error(stopErr),
		)
		message = "Transcript fetched but the bot could not be stopped"
	}

	update := entities.TranscriptUpdate{
		Text:        transcript.Raw,
		Segments:    toSegments(transcript.Segments),
		AttemptedAt: s.now(),
	}
	if err = s.repo.SaveTranscript(ctx, in.MeetingID, update); err != nil {
		return nil, apperrors.ErrDBQueryFailed("save transcript", err)
	}

	s.archive(ctx, in.MeetingID, transcript.Raw)

	return &FetchTranscriptResult{Transcript: transcript.Raw, Message: message}, nil
}

// recordFailure marks the attempt without transcript content. It runs detached
// from request cancellation and its own failure is only logged.
func (s *service) recordFailure(ctx context.Context, meetingID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	reason := cause.Error()
	if appErr, ok := apperrors.As(cause); ok {
		reason = appErr.Message
	}
	at := s.now()

	write := func() error {
		return s.repo.MarkTranscriptionFailed(ctx, meetingID, at, reason)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), failureWriteAttempts-1), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		s.logger.Error("failed to record transcription failure",
			zap.String("meeting_id", meetingID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func (s *service) archive(ctx context.Context, meetingID, transcript string) {
	if s.archiver == nil {
		return
	}
	location, err := s.archiver.ArchiveTranscript(ctx, meetingID, transcript)
	if err != nil {
		s.logger.Warn("failed to archive transcript", zap.String("meeting_id", meetingID), zap.Error(err))
		return
	}
	s.logger.Debug("transcript archived", zap.String("meeting_id", meetingID), zap.String("location", location))
}

func toSegments(in []vexa.Segment) []entities.TranscriptSegment {
	if len(in) == 0 {
		return nil
	}
	out := make([]entities.TranscriptSegment, 0, len(in))
	for _, seg := range in {
		out = append(out, entities.TranscriptSegment{Speaker: seg.Speaker, Text: seg.Text})
	}
	return out
}
