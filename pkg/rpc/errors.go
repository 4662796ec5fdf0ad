package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when an upstream answers 404. For the permission-tree service this is
// an expected answer meaning "no index entry", not a failure.
var ErrNotFound = errors.New("not found")

// StatusError reports a non-2xx response. One carrying 404 matches ErrNotFound.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server %d", e.Code)
	}
	return fmt.Sprintf("http %d", e.Code)
}

// Is lets a StatusError carrying 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// NodeError is the error object a node embeds in an otherwise successful JSON-RPC response.
type NodeError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}
