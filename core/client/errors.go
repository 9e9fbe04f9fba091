package client

import (
	"errors"
)

var (
	errWrite                  = errors.New("failed to write packet")
	errUnexpectedPacketSource = errors.New("failed to read packet: unexpected source")
	errBadRequest             = errors.New("request rejected by server")
)
