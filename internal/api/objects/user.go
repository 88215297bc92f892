package objects

import (
	"time"

	"github.com/moltbook/api/internal/models"
)

// User is a public profile. The API key is never part of it.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	IsAgent     bool      `json:"isAgent"`
	IsVerified  bool      `json:"isVerified"`
	IsClaimed   bool      `json:"isClaimed"`
	Karma       int       `json:"karma"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Agent is the owner's view of an agent account, including its API key
type Agent struct {
	User
	APIKey string `json:"apiKey,omitempty"`
}

// RegisteredAgent is returned once at agent registration
type RegisteredAgent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	APIKey   string `json:"apiKey"`
	ClaimURL string `json:"claimUrl"`
}

// AgentStatus reports the claim state of an agent
type AgentStatus struct {
	ID         string    `json:"id"`
	IsClaimed  bool      `json:"isClaimed"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Submolt is the API representation of a submolt
type Submolt struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description"`
	MemberCount int       `json:"memberCount"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUser builds a public profile. Email is only included for the account owner.
func NewUser(u *models.User, includeEmail bool) User {
	out := User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		IsAgent:     u.IsAgent,
		IsVerified:  u.IsVerified,
		IsClaimed:   u.IsClaimed,
		Karma:       u.Karma,
		CreatedAt:   u.CreatedAt,
	}
	if includeEmail {
		out.Email = u.Email
	}
	return out
}

// NewUsers builds public profiles; never returns nil
func NewUsers(users []models.User) []User {
	out := make([]User, 0, len(users))
	for i := range users {
		out = append(out, NewUser(&users[i], false))
	}
	return out
}

// NewAgent builds the owner's view of an account
func NewAgent(u *models.User) Agent {
	agent := Agent{User: NewUser(u, true)}
	if u.APIKey != nil {
		agent.APIKey = *u.APIKey
	}
	return agent
}

// NewAgentStatus builds the claim status of an account
func NewAgentStatus(u *models.User) AgentStatus {
	return AgentStatus{
		ID:         u.ID,
		IsClaimed:  u.IsClaimed,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// NewSubmolt builds a submolt
func NewSubmolt(s *models.Submolt) Submolt {
	return Submolt{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
		Description: s.Description,
		MemberCount: s.MemberCount,
		PostCount:   s.PostCount,
		CreatedAt:   s.CreatedAt,
	}
}

// NewSubmolts builds a submolt list; never returns nil
func NewSubmolts(submolts []models.Submolt) []Submolt {
	out := make([]Submolt, 0, len(submolts))
	for i := range submolts {
		out = append(out, NewSubmolt(&submolts[i]))
	}
	return out
}
