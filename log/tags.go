package log

import "go.uber.org/zap"

// Internal mark the error severe, due to issues in code.
var Internal = zap.String("severe_error", "internal")
