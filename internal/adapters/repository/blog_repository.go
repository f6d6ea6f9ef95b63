package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type BlogRepository struct {
	blogs *Collection
	now   func() time.Time
}

var _ ports.BlogRepository = (*BlogRepository)(nil)

func NewBlogRepository(g *Gateway) *BlogRepository {
	return &BlogRepository{blogs: g.Collection(BlogsCollection), now: time.Now}
}

var errBlogNotFound = domain.NotFound("blog post not found")

func (r *BlogRepository) Insert(ctx context.Context, post domain.BlogPost) (string, error) {
	if !post.Status.Valid() {
		return "", domain.Validation("unknown blog status " + string(post.Status))
	}
	post.ID = ""
	return r.blogs.InsertOne(ctx, post)
}

func (r *BlogRepository) FindByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var post domain.BlogPost
	if err := r.blogs.FindOne(ctx, byID(oid), &post); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBlogNotFound
		}
		return nil, err
	}
	if !post.Status.Valid() {
		return nil, corruptPost(post)
	}
	return &post, nil
}

// Find lists posts newest first.
func (r *BlogRepository) Find(ctx context.Context, status domain.BlogStatus) ([]domain.BlogPost, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	posts := []domain.BlogPost{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := r.blogs.Find(ctx, filter, &posts, opts); err != nil {
		return nil, err
	}
	for _, p := range posts {
		if !p.Status.Valid() {
			return nil, corruptPost(p)
		}
	}
	return posts, nil
}

func (r *BlogRepository) Update(ctx context.Context, id string, patch domain.BlogPatch) error {
	if patch.Empty() {
		return domain.Validation("nothing to update")
	}
	set := bson.M{"updatedAt": r.now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Thumbnail != nil {
		set["thumbnail"] = *patch.Thumbnail
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	return r.update(ctx, id, set)
}

func (r *BlogRepository) SetStatus(ctx context.Context, id string, status domain.BlogStatus) error {
	if !status.Valid() {
		return domain.Validation("unknown blog status " + string(status))
	}
	return r.update(ctx, id, bson.M{"status": status, "updatedAt": r.now().UTC()})
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	deleted, err := r.blogs.DeleteOne(ctx, byID(oid))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errBlogNotFound
	}
	return nil
}

func (r *BlogRepository) update(ctx context.Context, id string, set bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	matched, err := r.blogs.UpdateOne(ctx, byID(oid), bson.M{"$set": set}, false)
	if err != nil {
		return err
	}
	if matched == 0 {
		return errBlogNotFound
	}
	return nil
}

func corruptPost(p domain.BlogPost) error {
	return domain.Upstream("corrupt blog post "+p.ID, errors.New("status outside the allowed values"))
}
