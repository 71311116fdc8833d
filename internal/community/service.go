package community

import (
	"context"
	"encoding/json"
	"errors"

	"backend-alpineconnect/internal/db"
	"backend-alpineconnect/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrEmptyContent = errors.New("content must not be empty")
	ErrPostNotFound = errors.New("post not found")
)

// Service owns the club board. Posts and comments are append-only;
// nothing here edits or removes them.
type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) CreatePost(ctx context.Context, authorID string, req PostRequest) (Post, error) {
	if req.Content == "" {
		return Post{}, ErrEmptyContent
	}

	post := Post{
		ID:         uuid.NewString(),
		Content:    req.Content,
		AuthorID:   authorID,
		AuthorName: req.AuthorName,
		Color:      req.Color,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, content, author_id, author_name, color)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, post.ID, post.Content, post.AuthorID, post.AuthorName, post.Color)
	if err := row.Scan(&post.CreatedAt); err != nil {
		return Post{}, err
	}

	s.broadcast("post_created", post)
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, content, author_id, author_name, color, created_at
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Content, &p.AuthorID, &p.AuthorName, &p.Color, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	row := s.db.QueryRow(ctx, `
		SELECT id, content, author_id, author_name, color, created_at
		FROM posts WHERE id=$1
	`, id)
	if err := row.Scan(&p.ID, &p.Content, &p.AuthorID, &p.AuthorName, &p.Color, &p.CreatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) AddComment(ctx context.Context, postID, authorID string, req CommentRequest) (Comment, error) {
	if req.Content == "" {
		return Comment{}, ErrEmptyContent
	}

	// the post must exist; commenting on a ghost is a 404, not an orphan row
	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE id=$1)
	`, postID).Scan(&exists); err != nil {
		return Comment{}, err
	}
	if !exists {
		return Comment{}, ErrPostNotFound
	}

	comment := Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		Content:    req.Content,
		AuthorID:   authorID,
		AuthorName: req.AuthorName,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_comments (id, post_id, content, author_id, author_name)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, comment.ID, comment.PostID, comment.Content, comment.AuthorID, comment.AuthorName)
	if err := row.Scan(&comment.CreatedAt); err != nil {
		return Comment{}, err
	}

	s.broadcast("comment_created", comment)
	return comment, nil
}

// Comments come back oldest first, reading order for a thread.
func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, content, author_id, author_name, created_at
		FROM post_comments WHERE post_id=$1
		ORDER BY created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorID, &c.AuthorName, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *Service) broadcast(event string, payload any) {
	if s.hub == nil {
		return
	}
	raw, _ := json.Marshal(map[string]any{
		"event": event,
		"data":  payload,
	})
	s.hub.Broadcast("posts", raw)
}
