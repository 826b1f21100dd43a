package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrProfileNotFound — нет файла профиля или секции профиля в нём.
	ErrProfileNotFound = errors.New("rai profile not found")

	// ErrInvalidSetting — значение настройки не прошло проверку.
	ErrInvalidSetting = errors.New("invalid setting")
)
