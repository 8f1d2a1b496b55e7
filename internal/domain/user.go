package domain

import "time"

type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleCounselor Role = "COUNSELOR"
	RoleAdmin     Role = "ADMIN"
)

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// User is the credential record. PasswordHash is empty for accounts that
// only authenticate through an external identity provider; such accounts
// must never pass password sign-in.
type User struct {
	ID                    string         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email                 string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash          string         `gorm:"type:text" json:"-"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Name                  string         `json:"name"`
	Role                  Role           `gorm:"type:text;not null;default:STUDENT" json:"role"`
	Nationality           string         `json:"nationality"`
	Verified              bool           `gorm:"not null;default:false" json:"verified"`
	RequirePasswordChange bool           `gorm:"not null;default:false" json:"require_password_change"`
	Image                 string         `json:"image,omitempty"`
	LastLoginAt           *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	Identities            []AuthIdentity `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// HasPassword reports whether direct password sign-in is possible at all.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

type AuthIdentity struct {
	ID             string                 `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         string                 `gorm:"type:uuid;index;not null" json:"user_id"`
	Provider       string                 `gorm:"type:text;not null" json:"provider"`
	ProviderUserID string                 `gorm:"type:text;not null" json:"provider_user_id"`
	Email          string                 `gorm:"type:text" json:"email"`
	RawProfile     map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"raw_profile"`
	CreatedAt      time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AuthIdentity) TableName() string { return "auth_identities" }
