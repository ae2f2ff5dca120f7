package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"shortlink/internal/models"
	"shortlink/internal/repository"
	"shortlink/internal/shortcode"

	"go.uber.org/zap"
)

// Registry error taxonomy. Handlers map these onto HTTP statuses.
var (
	ErrInvalidTarget       = errors.New("invalid target URL")
	ErrInvalidCode         = errors.New("invalid custom code")
	ErrCodeConflict        = errors.New("short code already taken")
	ErrGenerationExhausted = errors.New("could not generate a free short code")
	ErrNotFound            = errors.New("link not found")
	ErrStorage             = errors.New("storage failure")
)

// maxGenerateAttempts bounds the generate-and-check loop for auto codes.
const maxGenerateAttempts = 5

// Target URLs must be http(s) and contain no whitespace.
var targetURLPattern = regexp.MustCompile(`^https?://\S+$`)

// LinkService is the link registry: it owns link records and the rules for
// creating, resolving and deleting them.
type LinkService interface {
	Create(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	List(ctx context.Context) ([]*models.Link, error)
	Get(ctx context.Context, code string) (*models.Link, error)
	Delete(ctx context.Context, code string) error
	// RedirectAndCount resolves code to its target URL and counts the click
	// as one atomic storage update.
	RedirectAndCount(ctx context.Context, code string) (string, error)
}

type linkService struct {
	linkRepo       repository.LinkRepository
	codeCache      repository.CodeCache
	logger         *zap.Logger
	storageTimeout time.Duration
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	codeCache repository.CodeCache,
	logger *zap.Logger,
	storageTimeout time.Duration,
) LinkService {
	if storageTimeout <= 0 {
		storageTimeout = 5 * time.Second
	}
	return &linkService{
		linkRepo:       linkRepo,
		codeCache:      codeCache,
		logger:         logger,
		storageTimeout: storageTimeout,
	}
}

func (s *linkService) Create(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if !targetURLPattern.MatchString(input.TargetURL) {
		return nil, ErrInvalidTarget
	}

	// Syntax is checked before uniqueness: an invalid duplicate reports
	// invalid, not conflict.
	code := input.CustomCode
	if code != "" {
		if !shortcode.Validate(code) {
			return nil, ErrInvalidCode
		}
	} else {
		var err error
		code, err = s.pickFreeCode(ctx)
		if err != nil {
			return nil, err
		}
	}

	link := &models.Link{
		ShortCode: code,
		TargetURL: input.TargetURL,
		CreatedAt: time.Now().UTC(),
	}

	opCtx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.linkRepo.Create(opCtx, link); err != nil {
		// The insert is the authoritative uniqueness check; the pre-check in
		// pickFreeCode only loses races, it does not prevent them.
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, ErrCodeConflict
		}
		return nil, s.storageError("create link", err)
	}

	if err := s.codeCache.MarkTaken(ctx, link.ShortCode); err != nil {
		s.logger.Warn("Failed to mark code in cache",
			zap.String("code", link.ShortCode),
			zap.Error(err),
		)
	}

	return link, nil
}

// pickFreeCode generates candidates until one looks unused, up to
// maxGenerateAttempts. A looks-free answer can still lose the race to a
// concurrent create; the insert's unique constraint settles that.
func (s *linkService) pickFreeCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationExhausted, err)
		}

		if taken, err := s.codeCache.IsTaken(ctx, code); err == nil && taken {
			continue
		}

		opCtx, cancel := s.storageContext(ctx)
		exists, err := s.linkRepo.CodeExists(opCtx, code)
		cancel()
		if err != nil {
			return "", s.storageError("check code", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrGenerationExhausted
}

func (s *linkService) List(ctx context.Context) ([]*models.Link, error) {
	opCtx, cancel := s.storageContext(ctx)
	defer cancel()

	links, err := s.linkRepo.List(opCtx)
	if err != nil {
		return nil, s.storageError("list links", err)
	}

	return links, nil
}

func (s *linkService) Get(ctx context.Context, code string) (*models.Link, error) {
	opCtx, cancel := s.storageContext(ctx)
	defer cancel()

	link, err := s.linkRepo.GetByShortCode(opCtx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageError("get link", err)
	}

	return link, nil
}

func (s *linkService) Delete(ctx context.Context, code string) error {
	opCtx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.linkRepo.Delete(opCtx, code); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrNotFound
		}
		return s.storageError("delete link", err)
	}

	// Freed codes may be reused by future creates.
	if err := s.codeCache.Release(ctx, code); err != nil {
		s.logger.Warn("Failed to release code in cache",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	return nil
}

func (s *linkService) RedirectAndCount(ctx context.Context, code string) (string, error) {
	opCtx, cancel := s.storageContext(ctx)
	defer cancel()

	targetURL, err := s.linkRepo.IncrementClicks(opCtx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrNotFound
		}
		return "", s.storageError("count click", err)
	}

	return targetURL, nil
}

func (s *linkService) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storageTimeout)
}

// storageError logs the real cause and returns the opaque ErrStorage wrapper.
func (s *linkService) storageError(op string, err error) error {
	s.logger.Error("Storage operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s", ErrStorage, op)
}
