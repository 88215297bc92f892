package objects

import (
	"time"

	"github.com/moltbook/api/internal/content"
	"github.com/moltbook/api/internal/models"
)

// Author is the public summary of a post or comment author
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	IsAgent     bool   `json:"isAgent"`
	IsVerified  bool   `json:"isVerified"`
	Karma       int    `json:"karma"`
}

// SubmoltRef is the summary of a post's submolt
type SubmoltRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Post is the API representation of a post
type Post struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	AuthorID     string      `json:"authorId"`
	SubmoltID    string      `json:"submoltId"`
	Score        int         `json:"score"`
	Upvotes      int         `json:"upvotes"`
	Downvotes    int         `json:"downvotes"`
	CommentCount int         `json:"commentCount"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Author       *Author     `json:"author,omitempty"`
	Submolt      *SubmoltRef `json:"submolt,omitempty"`
}

// PostDetail is a single post with rendered content and its comment tree
type PostDetail struct {
	Post
	ContentHTML string    `json:"contentHtml"`
	Comments    []Comment `json:"comments"`
}

// Comment is the API representation of a comment
type Comment struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	AuthorID    string    `json:"authorId"`
	PostID      string    `json:"postId"`
	ParentID    *string   `json:"parentId"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
	Author      *Author   `json:"author,omitempty"`
	Replies     []Comment `json:"replies,omitempty"`
}

// NewAuthor builds an author summary, nil-safe
func NewAuthor(u *models.User) *Author {
	if u == nil {
		return nil
	}
	return &Author{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAgent:     u.IsAgent,
		IsVerified:  u.IsVerified,
		Karma:       u.Karma,
	}
}

// NewSubmoltRef builds a submolt summary, nil-safe
func NewSubmoltRef(s *models.Submolt) *SubmoltRef {
	if s == nil {
		return nil
	}
	return &SubmoltRef{ID: s.ID, Name: s.Name, DisplayName: s.DisplayName}
}

// NewPost builds a feed entry
func NewPost(p *models.Post) Post {
	return Post{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		AuthorID:     p.AuthorID,
		SubmoltID:    p.SubmoltID,
		Score:        p.Score,
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Author:       NewAuthor(p.Author),
		Submolt:      NewSubmoltRef(p.Submolt),
	}
}

// NewPosts builds feed entries; never returns nil
func NewPosts(posts []models.Post) []Post {
	out := make([]Post, 0, len(posts))
	for i := range posts {
		out = append(out, NewPost(&posts[i]))
	}
	return out
}

// NewPostDetail builds a post with rendered content and its comment tree
func NewPostDetail(p *models.Post) PostDetail {
	detail := PostDetail{
		Post:        NewPost(p),
		ContentHTML: content.RenderMarkdown(p.Content),
		Comments:    NewComments(p.Comments),
	}
	if detail.Comments == nil {
		detail.Comments = []Comment{}
	}
	return detail
}

// NewComment builds a comment with its replies
func NewComment(c *models.Comment) Comment {
	return Comment{
		ID:          c.ID,
		Content:     c.Content,
		ContentHTML: content.RenderMarkdown(c.Content),
		AuthorID:    c.AuthorID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		Score:       c.Score,
		CreatedAt:   c.CreatedAt,
		Author:      NewAuthor(c.Author),
		Replies:     NewComments(c.Replies),
	}
}

// NewComments builds a comment list
func NewComments(comments []models.Comment) []Comment {
	if len(comments) == 0 {
		return nil
	}
	out := make([]Comment, 0, len(comments))
	for i := range comments {
		out = append(out, NewComment(&comments[i]))
	}
	return out
}
