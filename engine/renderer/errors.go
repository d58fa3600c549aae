package renderer

import "errors"

var (
	ErrNilCommand           = errors.New("renderer: nil command")
	ErrUnknownCommand       = errors.New("renderer: command type is unknown")
	ErrUninitializedCommand = errors.New("renderer: command submitted before Init")
	ErrInvalidRenderQueue   = errors.New("renderer: invalid render queue id")
	ErrContextLost          = errors.New("renderer: backend context lost")
	ErrResourceMissing      = errors.New("renderer: backend resource missing")
	ErrCaptureUnsupported   = errors.New("renderer: screen capture not supported by backend")
)
