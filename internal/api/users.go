package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltbook/api/internal/api/objects"
	"github.com/moltbook/api/internal/auth"
)

const profilePostsLimit = 10

// getUser handles GET /users/:username
func (r *Router) getUser(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := r.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}
	if user == nil {
		respondError(c, NotFound("User not found"), "")
		return
	}

	posts, err := r.posts.ListByAuthor(ctx, user.ID, profilePostsLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"user":  objects.NewUser(user, false),
		"posts": objects.NewPosts(posts),
	})
}

// myStats handles GET /users/me/stats
func (r *Router) myStats(c *gin.Context) {
	stats, err := r.users.Stats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch stats")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"posts":     stats.Posts,
		"comments":  stats.Comments,
		"karma":     stats.Karma,
		"followers": 0,
	})
}
