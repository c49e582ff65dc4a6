package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/metrics"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/utils"
)

const DefaultMaxAttempts = 5

type LinkService struct {
	repo        repository.LinkRepository
	baseURL     string
	maxAttempts int
	generate    func() (string, error)
	now         func() time.Time
	logger      *zap.Logger
}

// NewLinkService wires the shortener to its store. A non-empty baseURL
// replaces the per-request base when building short URLs.
func NewLinkService(repo repository.LinkRepository, baseURL string, logger *zap.Logger) *LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkService{
		repo:        repo,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: DefaultMaxAttempts,
		generate:    utils.GenerateShortCode,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// CreateShortLink stores longURL under the requested custom code, or under
// a generated one when custom is blank. requestBase is "<scheme>://<host>"
// of the incoming request.
func (s *LinkService) CreateShortLink(ctx context.Context, req *model.ShortenRequest, requestBase string) (*model.ShortenResponse, error) {
	normalized, err := utils.NormalizeURL(req.LongURL)
	if err != nil {
		return nil, err
	}

	var code string
	if custom := strings.TrimSpace(req.Custom); custom != "" {
		code, err = s.createWithCustomCode(ctx, custom, normalized)
	} else {
		code, err = s.createWithGeneratedCode(ctx, normalized)
	}
	if err != nil {
		return nil, err
	}

	return &model.ShortenResponse{
		Code:     code,
		ShortURL: s.buildShortURL(requestBase, code),
	}, nil
}

func (s *LinkService) createWithCustomCode(ctx context.Context, code, url string) (string, error) {
	if err := utils.ValidateCustomCode(code); err != nil {
		return "", err
	}

	_, err := s.repo.FindByCode(ctx, code)
	if err == nil {
		return "", fmt.Errorf("custom code '%s': %w", code, apperrors.ErrCodeTaken)
	}
	if !errors.Is(err, apperrors.ErrLinkNotFound) {
		return "", fmt.Errorf("failed to check custom code: %w", err)
	}

	link := s.newLink(code, url)
	if err := s.repo.Insert(ctx, link); err != nil {
		// lost a race with a concurrent create of the same code
		if errors.Is(err, apperrors.ErrCodeExists) {
			return "", fmt.Errorf("custom code '%s': %w", code, apperrors.ErrCodeTaken)
		}
		return "", fmt.Errorf("failed to create link: %w", err)
	}

	metrics.LinksCreated.WithLabelValues(metrics.ModeCustom).Inc()
	return code, nil
}

func (s *LinkService) createWithGeneratedCode(ctx context.Context, url string) (string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		err = s.repo.Insert(ctx, s.newLink(code, url))
		if err == nil {
			metrics.LinksCreated.WithLabelValues(metrics.ModeGenerated).Inc()
			return code, nil
		}

		if !errors.Is(err, apperrors.ErrCodeExists) {
			return "", fmt.Errorf("failed to create link: %w", err)
		}

		metrics.CodeCollisions.Inc()
		s.logger.Debug("generated code collided",
			zap.String("code", code),
			zap.Int("attempt", attempt))
	}

	metrics.AllocationExhausted.Inc()
	s.logger.Error("code allocation exhausted", zap.Int("attempts", s.maxAttempts))
	return "", fmt.Errorf("after %d attempts: %w", s.maxAttempts, apperrors.ErrAllocationExhausted)
}

func (s *LinkService) GetStats(ctx context.Context, code string) (*model.StatsResponse, error) {
	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &model.StatsResponse{
		Code:      link.Code,
		URL:       link.URL,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
	}, nil
}

// Resolve counts one click and returns the destination URL.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.repo.IncrementClicks(ctx, code)
	if err != nil {
		return "", err
	}

	metrics.Redirects.Inc()
	return link.URL, nil
}

func (s *LinkService) newLink(code, url string) *model.Link {
	return &model.Link{
		Code:      code,
		URL:       url,
		Clicks:    0,
		CreatedAt: s.now(),
	}
}

func (s *LinkService) buildShortURL(requestBase, code string) string {
	base := s.baseURL
	if base == "" {
		base = strings.TrimRight(requestBase, "/")
	}
	return fmt.Sprintf("%s/%s", base, code)
}
