package community

import "time"

// Post is a short note on the club board. Color is a display hint the
// client picks when creating the post.
type Post struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"created_at"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostRequest struct {
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
	Color      string `json:"color"`
}

type CommentRequest struct {
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
}
