package storage

import (
	"fmt"

	"github.com/juju/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// KeyCollisionError is returned by Put when an identity key is already
// occupied. The store is left unchanged.
type KeyCollisionError struct {
	Key string
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("object key collision occurred, cannot store key %q", e.Key)
}

// Unwrap lets errors.Is(err, errors.AlreadyExists) match.
func (e *KeyCollisionError) Unwrap() error {
	return errors.AlreadyExists
}

// GRPCStatus maps the collision to codes.AlreadyExists.
func (e *KeyCollisionError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Error())
}

// IsKeyCollision reports whether err is, or wraps, a KeyCollisionError.
func IsKeyCollision(err error) bool {
	var kc *KeyCollisionError
	return errors.As(err, &kc)
}
