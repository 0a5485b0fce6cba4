package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrRoomResolution    = fmt.Errorf("chat room resolution failed")
	ErrRoomAlreadyExists = fmt.Errorf("chat room already exists")
	ErrInvalidCommand    = fmt.Errorf("invalid command")
)
