package domain

import (
	"time"
)

// Role constants define the allowed user roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// User is an account together with the ratings and reviews it has given.
type User struct {
	ID                string       `json:"id"`
	Username          string       `json:"username"`
	PasswordHash      string       `json:"-"`
	Role              string       `json:"role"`
	SumRatingsGiven   int          `json:"sumRatingsGiven"`
	TotalRatingsGiven int          `json:"totalRatingsGiven"`
	AverageRating     float64      `json:"averageRating"`
	Reviews           []UserReview `json:"reviews"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// UserReview mirrors a review on the user side. ItemName is a snapshot taken
// when the review was written.
type UserReview struct {
	ItemID   string    `json:"itemId"`
	ItemName string    `json:"itemName"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// AverageOf returns sum/total, or 0 when total is 0.
func AverageOf(sum, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(sum) / float64(total)
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Sanitized returns a copy without password material.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// Actor is the identity of the caller as established by the session.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
