package eventstream

import "errors"

var (
	// ErrNilAnswerEvent indicates a nil answer event payload was provided to a publisher.
	ErrNilAnswerEvent = errors.New("nil answer event")

	// ErrPublishFailed wraps transport failures while publishing.
	ErrPublishFailed = errors.New("event publish failed")
)
