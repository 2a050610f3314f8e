package http

import (
	"time"

	"github.com/campuslink/auth-service/app/entity"
)

type UserResponse struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
	if user.Name.Valid {
		resp.Name = &user.Name.String
	}
	return resp
}

type UserSummary struct {
	ID       uint64  `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email"`
}

func NewUserSummaries(users []*entity.User) []UserSummary {
	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summary := UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		}
		if user.Name.Valid {
			summary.Name = &user.Name.String
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
