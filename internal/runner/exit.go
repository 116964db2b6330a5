package runner

import (
	"errors"

	"github.com/Alias1177/DCAMailer/models"
)

// Process exit codes
const (
	ExitOK       = 0
	ExitUnknown  = 1
	ExitConfig   = 2
	ExitFetch    = 3
	ExitAuth     = 4
	ExitDelivery = 5
)

// ErrorKind names the error class for logs and metrics; empty for nil
func ErrorKind(err error) string {
	var (
		configErr   *models.ConfigError
		fetchErr    *models.FetchError
		authErr     *models.AuthError
		deliveryErr *models.DeliveryError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &deliveryErr):
		return "delivery"
	default:
		return "unknown"
	}
}

// ExitCode maps a run error to the process exit status
func ExitCode(err error) int {
	switch ErrorKind(err) {
	case "":
		return ExitOK
	case "config":
		return ExitConfig
	case "fetch":
		return ExitFetch
	case "auth":
		return ExitAuth
	case "delivery":
		return ExitDelivery
	default:
		return ExitUnknown
	}
}
