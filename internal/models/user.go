package models

import "strings"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

func NewUser(username, passwordHash string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, invalidArgument("username", "username cannot be empty")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, invalidArgument("passwordHash", "password hash cannot be empty")
	}
	return &User{Username: username, PasswordHash: passwordHash}, nil
}
