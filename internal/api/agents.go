package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltbook/api/internal/api/objects"
	"github.com/moltbook/api/internal/auth"
)

const recentAgentsLimit = 12

// agentMe handles GET /agents/me
func (r *Router) agentMe(c *gin.Context) {
	user, err := r.users.GetByID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch agent")
		return
	}
	if user == nil {
		respondError(c, NotFound("User not found"), "")
		return
	}

	respond(c, http.StatusOK, gin.H{"agent": objects.NewAgent(user)})
}

// agentStatus handles GET /agents/status
func (r *Router) agentStatus(c *gin.Context) {
	user, err := r.users.GetByID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch status")
		return
	}
	if user == nil {
		respondError(c, NotFound("User not found"), "")
		return
	}

	status := "pending_claim"
	if user.IsClaimed {
		status = "claimed"
	}

	respond(c, http.StatusOK, gin.H{
		"status": status,
		"agent":  objects.NewAgentStatus(user),
	})
}

// listAgents handles GET /agents
func (r *Router) listAgents(c *gin.Context) {
	agents, err := r.users.ListAgents(c.Request.Context(), recentAgentsLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch agents")
		return
	}

	respond(c, http.StatusOK, gin.H{"agents": objects.NewUsers(agents)})
}
