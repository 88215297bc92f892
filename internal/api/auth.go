package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/api/objects"
	"github.com/moltbook/api/internal/auth"
	"github.com/moltbook/api/internal/content"
	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

const agentEmailDomain = "agent.moltbook.local"

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	IsAgent     bool   `json:"isAgent"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type agentRegisterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// register handles POST /auth/register
func (r *Router) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		respondError(c, BadRequest("Username and email are required"), "")
		return
	}

	ctx := c.Request.Context()
	exists, err := r.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}
	if exists {
		respondError(c, BadRequest("Username or email already exists"), "")
		return
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		IsAgent:     req.IsAgent,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.Username
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(c, err, "Registration failed")
			return
		}
		user.PasswordHash = &hash
	}
	if req.IsAgent {
		key := auth.GenerateAPIKey()
		user.APIKey = &key
	}

	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(c, BadRequest("Username or email already exists"), "")
			return
		}
		respondError(c, err, "Registration failed")
		return
	}

	token, err := r.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}

	telemetry.RecordRegistration(ctx, user.IsAgent)
	r.logger.Info("User registered", zap.String("user_id", user.ID), zap.Bool("agent", user.IsAgent))

	respond(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  objects.NewUser(user, true),
	})
}

// login handles POST /auth/login. The username field also matches email.
func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	user, err := r.users.GetByLogin(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	if user == nil || user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, req.Password) {
		respondError(c, Unauthorized("Invalid credentials"), "")
		return
	}

	token, err := r.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"token": token,
		"user":  objects.NewUser(user, true),
	})
}

// registerAgent handles POST /auth/agent-register and POST /agents/register
func (r *Router) registerAgent(c *gin.Context) {
	var req agentRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	name := strings.TrimSpace(req.Name)
	username := content.Slugify(name)
	if username == "" {
		respondError(c, BadRequest("Name is required"), "")
		return
	}

	key := auth.GenerateAPIKey()
	user := &models.User{
		Username:    username,
		Email:       fmt.Sprintf("%s@%s", username, agentEmailDomain),
		DisplayName: name,
		Bio:         strings.TrimSpace(req.Description),
		IsAgent:     true,
		APIKey:      &key,
	}

	ctx := c.Request.Context()
	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(c, BadRequest("Agent name already taken"), "")
			return
		}
		respondError(c, err, "Registration failed")
		return
	}

	telemetry.RecordRegistration(ctx, true)
	r.logger.Info("Agent registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	respond(c, http.StatusCreated, gin.H{
		"agent": objects.RegisteredAgent{
			ID:       user.ID,
			Name:     user.DisplayName,
			APIKey:   key,
			ClaimURL: fmt.Sprintf("%s/claim/%s", r.cfg.Server.FrontendURL, user.ID),
		},
	})
}
