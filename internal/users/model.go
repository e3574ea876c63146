package users

import "strings"

// AuthLevelAdmin is the authorization level required for content writes.
const AuthLevelAdmin = 1

// User captures a registered account. The password column always holds a
// bcrypt hash, never a raw password.
type User struct {
	UserName string `gorm:"column:user_name;primaryKey;size:16;not null"`
	Password string `gorm:"column:password;size:72;not null"`
	Auth     int    `gorm:"column:auth;not null;default:0"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
