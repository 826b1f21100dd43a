package mq

import "errors"

var (
	// ErrNoChannel — соединение ещё не установлено или потеряно.
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrReject — обработчик отказывается от сообщения навсегда.
	// Сообщение, отклонённое с этой ошибкой, уходит в DLQ без повтора.
	ErrReject = errors.New("message rejected")
)
