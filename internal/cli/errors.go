package cli

import "errors"

var (
	errTopicRequired   = errors.New("topic argument required")
	errPayloadRequired = errors.New("payload argument required")
)
