package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrUsernameTaken   = errors.New("username already taken")
)
