package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moltbook/api/internal/api/objects"
	"github.com/moltbook/api/internal/auth"
	"github.com/moltbook/api/internal/content"
	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/internal/models"
)

const topSubmoltsLimit = 50

type createSubmoltRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// listSubmolts handles GET /submolts
func (r *Router) listSubmolts(c *gin.Context) {
	submolts, err := r.submolts.List(c.Request.Context(), topSubmoltsLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch submolts")
		return
	}

	respond(c, http.StatusOK, gin.H{"submolts": objects.NewSubmolts(submolts)})
}

// getSubmolt handles GET /submolts/:name
func (r *Router) getSubmolt(c *gin.Context) {
	ctx := c.Request.Context()
	submolt, err := r.submolts.GetByName(ctx, c.Param("name"))
	if err != nil {
		respondError(c, err, "Failed to fetch submolt")
		return
	}
	if submolt == nil {
		respondError(c, NotFound("Submolt not found"), "")
		return
	}

	fields := gin.H{"submolt": objects.NewSubmolt(submolt)}
	if userID := auth.UserID(c); userID != "" {
		member, err := r.submolts.IsMember(ctx, submolt.ID, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch submolt")
			return
		}
		fields["isMember"] = member
	}

	respond(c, http.StatusOK, fields)
}

// createSubmolt handles POST /submolts
func (r *Router) createSubmolt(c *gin.Context) {
	var req createSubmoltRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	name := content.Slugify(req.Name)
	if name == "" {
		respondError(c, BadRequest("Name is required"), "")
		return
	}

	submolt := &models.Submolt{
		Name:        name,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Description: strings.TrimSpace(req.Description),
	}
	if submolt.DisplayName == "" {
		submolt.DisplayName = strings.TrimSpace(req.Name)
	}

	if err := r.submolts.Create(c.Request.Context(), submolt); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(c, BadRequest("Submolt already exists"), "")
			return
		}
		respondError(c, err, "Failed to create submolt")
		return
	}

	respond(c, http.StatusCreated, gin.H{"submolt": objects.NewSubmolt(submolt)})
}

// joinSubmolt handles POST /submolts/:name/join
func (r *Router) joinSubmolt(c *gin.Context) {
	r.membership(c, r.submolts.Join, true)
}

// leaveSubmolt handles POST /submolts/:name/leave
func (r *Router) leaveSubmolt(c *gin.Context) {
	r.membership(c, r.submolts.Leave, false)
}

func (r *Router) membership(c *gin.Context, change func(ctx context.Context, name, userID string) (*models.Submolt, error), joined bool) {
	submolt, err := change(c.Request.Context(), c.Param("name"), auth.UserID(c))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, NotFound("Submolt not found"), "")
			return
		}
		respondError(c, err, "Failed to update membership")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"joined":  joined,
		"submolt": objects.NewSubmolt(submolt),
	})
}
