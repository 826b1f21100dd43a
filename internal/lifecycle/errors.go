package lifecycle

import "errors"

// Ошибки lifecycle.
var (
	// ErrProvisionTimeout — engine не перешёл в PROVISIONED за отведённое число попыток.
	ErrProvisionTimeout = errors.New("engine not provisioned in time")

	// ErrProvisionFailed — сервис сообщил PROVISION_FAILED.
	ErrProvisionFailed = errors.New("engine provisioning failed")
)
