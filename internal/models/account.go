// Package models holds the records persisted by the realty repositories.
package models

import "time"

// Account is a registered username with its credential hash and session
// state. SessionID names the current login and is empty while logged out.
type Account struct {
	ID             string
	Username       string
	CredentialHash string
	LoggedIn       bool
	SessionID      string
	CreatedAt      time.Time
}

// Permission is a named capability and the usernames currently holding it.
type Permission struct {
	Name     string
	Grantees []string
}
