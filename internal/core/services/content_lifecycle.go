package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type BlogService struct {
	posts   ports.BlogRepository
	authz   *Authorizer
	events  ports.EventRecorder
	metrics ports.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.BlogService = (*BlogService)(nil)

func NewBlogService(
	posts ports.BlogRepository,
	authz *Authorizer,
	events ports.EventRecorder,
	metrics ports.Metrics,
	logger *slog.Logger,
) *BlogService {
	return &BlogService{
		posts:   posts,
		authz:   authz,
		events:  orNopRecorder(events),
		metrics: orNopMetrics(metrics),
		logger:  orDiscard(logger),
		now:     time.Now,
	}
}

// Create stores a new post; posts start as drafts unless a valid status is given.
func (s *BlogService) Create(ctx context.Context, id domain.Identity, post domain.BlogPost) (string, error) {
	if post.Status == "" {
		post.Status = domain.BlogDraft
	} else if _, err := domain.ParseBlogStatus(string(post.Status)); err != nil {
		return "", err
	}

	caller, err := s.authz.Require(ctx, id, ActionBlogCreate, "")
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	post.ID = ""
	post.AuthorEmail = caller.Email
	if post.AuthorName == "" {
		post.AuthorName = caller.Name
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	return s.posts.Insert(ctx, post)
}

// List returns every post, or only drafts or only published posts when status
// names one of them. Any other status value lists everything.
func (s *BlogService) List(ctx context.Context, id domain.Identity, status string) ([]domain.BlogPost, error) {
	if _, err := s.authz.Require(ctx, id, ActionBlogListAll, ""); err != nil {
		return nil, err
	}
	filter := domain.BlogStatus(status)
	if !filter.Valid() {
		filter = ""
	}
	return s.posts.Find(ctx, filter)
}

func (s *BlogService) ListPublished(ctx context.Context) ([]domain.BlogPost, error) {
	return s.posts.Find(ctx, domain.BlogPublished)
}

func (s *BlogService) Get(ctx context.Context, id domain.Identity, postID string) (*domain.BlogPost, error) {
	if _, err := s.authz.Require(ctx, id, ActionBlogReadAny, ""); err != nil {
		return nil, err
	}
	return s.posts.FindByID(ctx, postID)
}

// GetPublished hides drafts behind NotFound.
func (s *BlogService) GetPublished(ctx context.Context, postID string) (*domain.BlogPost, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != domain.BlogPublished {
		return nil, domain.NotFound("blog post not found")
	}
	return post, nil
}

func (s *BlogService) Update(ctx context.Context, id domain.Identity, postID string, patch domain.BlogPatch) error {
	if patch.Empty() {
		return domain.Validation("nothing to update")
	}
	if _, err := s.authz.Require(ctx, id, ActionBlogUpdate, ""); err != nil {
		return err
	}
	return s.posts.Update(ctx, postID, patch)
}

func (s *BlogService) Delete(ctx context.Context, id domain.Identity, postID string) error {
	caller, err := s.authz.Require(ctx, id, ActionBlogDelete, "")
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "blog post deleted", "id", postID, "actor", caller.Email)
	return nil
}

// ToggleStatus flips a post between draft and published. requested is the
// status the client currently shows: "published" stores draft and "draft"
// stores published. The stored status is not read first. Any other value is
// a no-op and reports changed=false.
func (s *BlogService) ToggleStatus(ctx context.Context, id domain.Identity, postID, requested string) (domain.BlogStatus, bool, error) {
	caller, err := s.authz.Require(ctx, id, ActionBlogToggle, "")
	if err != nil {
		return "", false, err
	}

	next, ok := domain.ToggledStatus(requested)
	if !ok {
		s.logger.InfoContext(ctx, "blog status toggle ignored", "id", postID, "requested", requested)
		return "", false, nil
	}

	if err := s.posts.SetStatus(ctx, postID, next); err != nil {
		return "", false, err
	}

	s.metrics.LifecycleTransition("blog", string(next))
	s.logger.InfoContext(ctx, "blog status toggled",
		"id", postID,
		"requested", requested,
		"to", string(next),
		"actor", caller.Email,
	)
	recordEvent(ctx, s.events, s.logger, ports.LifecycleEvent{
		Type:       ports.EventBlogStatusChanged,
		ResourceID: postID,
		Actor:      caller.Email,
		From:       requested,
		To:         string(next),
	})
	return next, true, nil
}
