package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID is a backend identifier. The backend emits integer ids; older
// deployments emit strings. Both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// User is the profile snapshot returned by GET /auth/me.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var patch UserPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return err
	}
	*u = User{}
	u.Apply(patch)
	return nil
}

// Apply copies every field present in the patch onto the user.
func (u *User) Apply(patch UserPatch) {
	if patch.ID != nil {
		u.ID = *patch.ID
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.CreatedAt != nil {
		u.CreatedAt = *patch.CreatedAt
	}
	if patch.UpdatedAt != nil {
		u.UpdatedAt = *patch.UpdatedAt
	}
}

// Touch stamps UpdatedAt with t.
func (u *User) Touch(t time.Time) {
	u.UpdatedAt = t.UTC().Format(time.RFC3339)
}

// UserPatch holds the user fields present in a response. Absent fields are nil.
type UserPatch struct {
	ID        *ID
	Name      *string
	Email     *string
	CreatedAt *string
	UpdatedAt *string
}

func (p *UserPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           *ID     `json:"id"`
		Name         *string `json:"name"`
		Email        *string `json:"email"`
		CreatedAt    *string `json:"createdAt"`
		UpdatedAt    *string `json:"updatedAt"`
		CreatedSnake *string `json:"created_at"`
		UpdatedSnake *string `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = UserPatch{
		ID:        raw.ID,
		Name:      raw.Name,
		Email:     raw.Email,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	if p.CreatedAt == nil {
		p.CreatedAt = raw.CreatedSnake
	}
	if p.UpdatedAt == nil {
		p.UpdatedAt = raw.UpdatedSnake
	}
	return nil
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string
	Password string
}

// Registration is the JSON body of POST /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the JSON body of PUT /auth/me. Only set fields are sent.
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// IsEmpty reports whether no field is set.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.CurrentPassword == nil && p.NewPassword == nil
}

// ProfileUpdateResult is the response of PUT /auth/me. Token is set when
// the backend rotated the credential.
type ProfileUpdateResult struct {
	User  UserPatch `json:"user"`
	Token string    `json:"token,omitempty"`
}

// TokenResponse is the response of POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
