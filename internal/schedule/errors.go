package schedule

import "errors"

var (
	ErrNegativeDuration  = errors.New("service durations and buffers must not be negative")
	ErrEmptyServiceBlock = errors.New("service must block at least one minute")
)
