package user

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255" example:"Somchai"`
	Email    string `json:"email" binding:"required,email" example:"somchai@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cretpass"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"somchai@example.com"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}
