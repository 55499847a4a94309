package commands

import (
	"net"
	"strconv"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, errors.WrapError(err, errors.CategoryValidation, "invalid listen address").
			WithContext("addr", addr).
			Build()
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, errors.ValidationError("invalid listen port").WithContext("addr", addr).Build()
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, nil
}
