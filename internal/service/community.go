package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/sanitize"
)

// AllCategories selects every post when listing summaries.
const AllCategories = "all"

// CreatePostInput is the payload for new community posts
type CreatePostInput struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

// CreateCommentInput is the payload for comments
type CreateCommentInput struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// ListPostSummaries projects every post, optionally restricted to one
// category. An empty category or AllCategories returns everything.
func (s *Service) ListPostSummaries(ctx context.Context, category string) []domain.PostSummary {
	posts := s.posts.ReadAll(ctx)

	summaries := make([]domain.PostSummary, 0, len(posts))
	for _, p := range posts {
		if category != "" && category != AllCategories && string(p.Category) != category {
			continue
		}
		summaries = append(summaries, p.Summary())
	}
	return summaries
}

// GetPost returns the full post with id
func (s *Service) GetPost(ctx context.Context, id string) (domain.CommunityPost, error) {
	for _, p := range s.posts.ReadAll(ctx) {
		if p.ID == id {
			return normalizePost(p), nil
		}
	}
	return domain.CommunityPost{}, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
}

// ResolvePostID expands an id prefix, as printed by short listings, to the
// full id of the one post it names. An exact id always wins.
func (s *Service) ResolvePostID(ctx context.Context, prefix string) (string, error) {
	posts := s.posts.ReadAll(ctx)
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return resolvePrefix("post", ids, prefix)
}

// CreatePost validates, sanitizes and persists a new post
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (domain.CommunityPost, error) {
	title := sanitize.PlainText(in.Title)
	content := sanitize.PlainText(in.Content)
	category := domain.Category(strings.TrimSpace(in.Category))
	if category == "" {
		category = domain.CategoryFree
	}

	var errs []domain.FieldError
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "is required"})
	}
	if content == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "is required"})
	}
	if !category.Valid() {
		errs = append(errs, domain.FieldError{Field: "category", Message: "is not a known category"})
	}
	if len(errs) > 0 {
		return domain.CommunityPost{}, domain.NewValidationErrors(errs)
	}

	post := domain.CommunityPost{
		Category:  category,
		Title:     title,
		Author:    authorOrAnonymous(in.Author),
		Content:   content,
		CreatedAt: s.now(),
		Comments:  []domain.Comment{},
	}

	err := s.posts.Update(ctx, func(posts []domain.CommunityPost) ([]domain.CommunityPost, error) {
		post.ID = s.uniqueID(func(id string) bool {
			for _, p := range posts {
				if p.ID == id {
					return true
				}
			}
			return false
		})
		return append(posts, post), nil
	})
	if err != nil {
		return domain.CommunityPost{}, fmt.Errorf("create post: %w", err)
	}

	s.log.InfoContext(ctx, "post created", slog.String("id", post.ID), slog.String("category", string(post.Category)))
	return post, nil
}

// AddComment appends a comment to the post with id and persists the post
func (s *Service) AddComment(ctx context.Context, postID string, in CreateCommentInput) (domain.Comment, error) {
	content := sanitize.PlainText(in.Content)
	if content == "" {
		return domain.Comment{}, domain.NewValidationError("content", "is required")
	}

	comment := domain.Comment{
		ID:        s.newID(),
		Author:    authorOrAnonymous(in.Author),
		Content:   content,
		CreatedAt: s.now(),
	}

	err := s.posts.Update(ctx, func(posts []domain.CommunityPost) ([]domain.CommunityPost, error) {
		for i := range posts {
			if posts[i].ID == postID {
				posts[i].Comments = append(posts[i].Comments, comment)
				return posts, nil
			}
		}
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	s.log.InfoContext(ctx, "comment added", slog.String("post_id", postID), slog.String("id", comment.ID))
	return comment, nil
}

// ProfileStats counts the posts and comments written by author
func (s *Service) ProfileStats(ctx context.Context, author string) (domain.ProfileStats, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return domain.ProfileStats{}, domain.NewValidationError("author", "is required")
	}

	stats := domain.ProfileStats{Author: author}
	for _, p := range s.posts.ReadAll(ctx) {
		if p.Author == author {
			stats.Posts++
		}
		for _, c := range p.Comments {
			if c.Author == author {
				stats.Comments++
			}
		}
	}
	return stats, nil
}

func authorOrAnonymous(author string) string {
	author = sanitize.PlainText(author)
	if author == "" {
		return domain.AnonymousAuthor
	}
	return author
}

// normalizePost makes an absent comment list encode as [] rather than null
func normalizePost(p domain.CommunityPost) domain.CommunityPost {
	if p.Comments == nil {
		p.Comments = []domain.Comment{}
	}
	return p
}
