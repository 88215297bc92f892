package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/api/objects"
	"github.com/moltbook/api/internal/auth"
	"github.com/moltbook/api/internal/cache"
	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

// feedGenerationKey is bumped on every write that can reorder or change a
// feed page; cached pages are keyed by it.
const feedGenerationKey = "feed:generation"

type createPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SubmoltID string `json:"submoltId"`
}

type voteRequest struct {
	Type string `json:"type"`
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

type pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type feedPage struct {
	Posts      []objects.Post `json:"posts"`
	Pagination pagination     `json:"pagination"`
}

// listPosts handles GET /posts
func (r *Router) listPosts(c *gin.Context) {
	fq := db.FeedQuery{
		Sort:    db.NormalizeSort(c.Query("sort")),
		Submolt: strings.TrimSpace(c.Query("submolt")),
		Limit:   r.clampLimit(c.Query("limit")),
		Offset:  parseOffset(c.Query("offset")),
	}

	cacheKey := cache.HashKey(
		"posts",
		r.feedGeneration(),
		fq.Sort,
		fq.Submolt,
		strconv.Itoa(fq.Limit),
		strconv.Itoa(fq.Offset),
	)

	var page feedPage
	if err := r.cache.GetJSON(cacheKey, &page); err == nil {
		respond(c, http.StatusOK, gin.H{"posts": page.Posts, "pagination": page.Pagination})
		return
	}

	posts, total, err := r.posts.List(c.Request.Context(), fq)
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}

	page = feedPage{
		Posts:      objects.NewPosts(posts),
		Pagination: pagination{Limit: fq.Limit, Offset: fq.Offset, Total: total},
	}
	if err := r.cache.SetJSON(cacheKey, page, feedCacheTTL(fq.Sort)); err != nil {
		r.logger.Debug("Failed to cache feed page", zap.Error(err))
	}

	respond(c, http.StatusOK, gin.H{"posts": page.Posts, "pagination": page.Pagination})
}

// feedCacheTTL returns cache TTL based on sort type
func feedCacheTTL(sort string) time.Duration {
	switch sort {
	case db.SortNew:
		return 3 * time.Second
	default:
		return 30 * time.Second
	}
}

func (r *Router) feedGeneration() string {
	gen, err := r.cache.Get(feedGenerationKey)
	if err != nil {
		return "0"
	}
	return gen
}

func (r *Router) bumpFeedGeneration() {
	if _, err := r.cache.Incr(feedGenerationKey, 0); err != nil {
		r.logger.Debug("Failed to bump feed generation", zap.Error(err))
	}
}

func (r *Router) clampLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return r.cfg.Feed.DefaultLimit
	}
	if limit > r.cfg.Feed.MaxLimit {
		return r.cfg.Feed.MaxLimit
	}
	return limit
}

func parseOffset(raw string) int {
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// createPost handles POST /posts
func (r *Router) createPost(c *gin.Context) {
	var req createPostRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.SubmoltID = strings.TrimSpace(req.SubmoltID)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" || req.SubmoltID == "" {
		respondError(c, BadRequest("Title, content and submoltId are required"), "")
		return
	}

	post := &models.Post{
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  auth.UserID(c),
		SubmoltID: req.SubmoltID,
	}

	ctx := c.Request.Context()
	if err := r.posts.Create(ctx, post); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, NotFound("Submolt not found"), "")
			return
		}
		respondError(c, err, "Failed to create post")
		return
	}

	r.bumpFeedGeneration()
	submoltName := ""
	if post.Submolt != nil {
		submoltName = post.Submolt.Name
	}
	telemetry.RecordPostCreated(ctx, submoltName)

	respond(c, http.StatusCreated, gin.H{"post": objects.NewPost(post)})
}

// getPost handles GET /posts/:id. An authenticated viewer also gets
// their own vote on the post as userVote.
func (r *Router) getPost(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := r.posts.GetDetail(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch post")
		return
	}
	if post == nil {
		respondError(c, NotFound("Post not found"), "")
		return
	}

	fields := gin.H{"post": objects.NewPostDetail(post)}
	if userID := auth.UserID(c); userID != "" {
		vote, err := r.votes.GetUserVote(ctx, userID, post.ID)
		if err != nil {
			respondError(c, err, "Failed to fetch post")
			return
		}
		if vote == "" {
			fields["userVote"] = nil
		} else {
			fields["userVote"] = vote
		}
	}

	respond(c, http.StatusOK, fields)
}

// votePost handles POST /posts/:id/vote
func (r *Router) votePost(c *gin.Context) {
	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	if !models.IsValidVoteType(req.Type) {
		respondError(c, BadRequest(`Vote type must be "up" or "down"`), "")
		return
	}

	ctx := c.Request.Context()
	result, err := r.votes.Cast(ctx, auth.UserID(c), c.Param("id"), req.Type)
	if err != nil {
		respondError(c, voteError(err), "Failed to vote")
		return
	}

	r.bumpFeedGeneration()
	telemetry.RecordVote(ctx, req.Type, result.Outcome)

	respond(c, http.StatusOK, gin.H{
		"score":    result.Score,
		"userVote": result.UserVote,
	})
}

// voteError maps a failed vote to its API error. A duplicate key means a
// concurrent vote by the same user won the insert.
func voteError(err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return NotFound("Post not found")
	case errors.Is(err, db.ErrDuplicate):
		return Conflict("Vote already in progress, please retry")
	default:
		return err
	}
}

// createComment handles POST /posts/:id/comments
func (r *Router) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(c, BadRequest("Content is required"), "")
		return
	}

	comment := &models.Comment{
		Content:  req.Content,
		AuthorID: auth.UserID(c),
		PostID:   c.Param("id"),
	}
	if parentID := strings.TrimSpace(req.ParentID); parentID != "" {
		comment.ParentID = &parentID
	}

	ctx := c.Request.Context()
	if err := r.comments.Create(ctx, comment); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			respondError(c, NotFound("Post not found"), "")
		case errors.Is(err, db.ErrInvalidParent):
			respondError(c, BadRequest("Parent comment not found on this post"), "")
		default:
			respondError(c, err, "Failed to create comment")
		}
		return
	}

	r.bumpFeedGeneration()
	telemetry.RecordCommentCreated(ctx, comment.ParentID != nil)

	respond(c, http.StatusCreated, gin.H{"comment": objects.NewComment(comment)})
}
