package repository

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRunLockNotHeld  = errors.New("run lock is not held by this run")
)
