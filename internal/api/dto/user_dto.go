package dto

import "encoding/json"

// TeamFilterQuery captures the optional team filter of GET /user.
type TeamFilterQuery struct {
	Team string `json:"team"`
}

// UserIDPath captures the userId path parameter.
type UserIDPath struct {
	UserID string `json:"userId"`
}

// CreateUserRequest payload. teamId accepts a JSON number or a numeric string.
type CreateUserRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	TeamID    json.Number `json:"teamId"`
	Status    string      `json:"status"`
	Initials  string      `json:"initials"`
	Password  string      `json:"password"`
}

// UpdateUserRequest payload. Omitted fields keep their stored values.
type UpdateUserRequest struct {
	TeamID    json.Number `json:"teamId"`
	FirstName *string     `json:"firstName"`
	LastName  *string     `json:"lastName"`
	Email     *string     `json:"email"`
	Status    *string     `json:"status"`
	Initials  *string     `json:"initials"`
}

// TeamResponse is the embedded team of a user.
type TeamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreatorResponse is the embedded creator of a user.
type CreatorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserSummary is the list view of a user.
type UserSummary struct {
	ID        string          `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Status    string          `json:"status"`
	Team      TeamResponse    `json:"team"`
	Initials  string          `json:"initials"`
	CreatedBy CreatorResponse `json:"createdBy"`
	CreatedAt string          `json:"createdAt"`
}

// UserDetail is the single-user view and adds the email.
type UserDetail struct {
	ID        string          `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Status    string          `json:"status"`
	Team      TeamResponse    `json:"team"`
	Initials  string          `json:"initials"`
	CreatedBy CreatorResponse `json:"createdBy"`
	CreatedAt string          `json:"createdAt"`
}

// CreateUserResponse is returned by POST /user/create.
type CreateUserResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MessageResponse is the body of every error and of plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}
