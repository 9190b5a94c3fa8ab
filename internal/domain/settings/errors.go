package settings

import "errors"

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrDuplicateKey    = errors.New("a setting with this key already exists")
	ErrInvalidKey      = errors.New("setting key is required")
)
