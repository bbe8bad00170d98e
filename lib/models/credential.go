package models

import "gorm.io/gorm"

// Credential is a chat's GitHub login, used for fetching private repositories.
// Replaced wholesale on each /login; never partially updated.
type Credential struct {
	gorm.Model
	ChatID   int64 `gorm:"uniqueIndex"`
	Username string
	Token    string
}
