package apperrors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrMissingToken   = errors.New("no authentication token available")
	ErrMissingAPIKey  = errors.New("no RationalBloks service account key configured")
	ErrDeployFailed   = errors.New("deployment failed")
	ErrDeployTimeout  = errors.New("deployment timed out")
	ErrGatewayFailure = errors.New("gateway reported failure")
)
