package domain

import "errors"

var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrMeetingEnded        = errors.New("meeting already ended")
	ErrRoomFull            = errors.New("room is full")
	ErrForbidden           = errors.New("only the creator may end the meeting")
	ErrDuplicateConnection = errors.New("connection id already registered")
	ErrStaleDestination    = errors.New("destination connection is gone")
)
