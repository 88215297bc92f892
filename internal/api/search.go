package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltbook/api/internal/api/objects"
)

const searchLimit = 10

// searchAll handles GET /search?q=
func (r *Router) searchAll(c *gin.Context) {
	result, err := r.search.Search(c.Request.Context(), c.Query("q"), searchLimit)
	if err != nil {
		respondError(c, err, "Search failed")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"posts":    objects.NewPosts(result.Posts),
		"submolts": objects.NewSubmolts(result.Submolts),
		"agents":   objects.NewUsers(result.Agents),
	})
}
