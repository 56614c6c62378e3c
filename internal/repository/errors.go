package repository

import "errors"

var ErrDuplicateIdempotencyKey = errors.New("order with this idempotency key already exists")
