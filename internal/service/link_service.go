package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gorm.io/gorm"

	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
	"github.com/Omakidx/link6ync/internal/shortcode"
)

const maxCodeAttempts = 5

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrLinkNotFound is returned when a short code does not resolve.
	ErrLinkNotFound = errors.New("url not found")
)

// LinkService shortens URLs and resolves short codes.
type LinkService interface {
	Shorten(ctx context.Context, originalURL string) (*model.Link, error)
	Resolve(ctx context.Context, code string) (*model.Link, error)
}

type linkService struct {
	linkRepo repository.LinkRepository
}

// NewLinkService creates a new link service.
func NewLinkService(linkRepo repository.LinkRepository) LinkService {
	return &linkService{linkRepo: linkRepo}
}

// Shorten stores the URL under a fresh random code, retrying on the rare
// collision with an existing code.
func (s *linkService) Shorten(ctx context.Context, originalURL string) (*model.Link, error) {
	parsed, err := url.ParseRequestURI(originalURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidURL
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := shortcode.Generate(shortcode.DefaultLength)
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}

		link := &model.Link{ShortCode: code, OriginalURL: originalURL}
		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create link: %w", err)
		}
	}
	return nil, errors.New("could not allocate a unique short code")
}

// Resolve looks up a short code and counts the click.
func (s *linkService) Resolve(ctx context.Context, code string) (*model.Link, error) {
	link, err := s.linkRepo.FindByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("lookup link: %w", err)
	}

	if err := s.linkRepo.IncrementClicks(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("count click: %w", err)
	}
	link.Clicks++

	return link, nil
}
