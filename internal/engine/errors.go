package engine

import (
	"strings"
)

// ErrorCategory is the classification of engine errors for telemetry
type ErrorCategory int

const (
	// ErrCategoryResource indicates missing or unreadable sources (file, device busy, permissions)
	ErrCategoryResource ErrorCategory = iota
	// ErrCategoryCodec indicates decode or negotiation failures
	ErrCategoryCodec
	// ErrCategoryNetwork indicates failures of network-backed sources
	ErrCategoryNetwork
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}

var (
	codecKeywords = []string{
		"codec",
		"decode",
		"format",
		"negotiation",
		"not negotiated",
		"caps",
		"no decoder",
		"missing plugin",
		"stream type",
		"demux",
	}
	resourceKeywords = []string{
		"resource",
		"not found",
		"no such file",
		"could not open",
		"permission",
		"busy",
		"device",
		"could not read",
	}
	networkKeywords = []string{
		"connection",
		"timeout",
		"unreachable",
		"network",
		"socket",
		"dns",
	}
)

// ClassifyError categorizes an engine error message. Codec keywords win over
// resource keywords ("could not decode stream" is a codec problem even though it
// names the stream), resource wins over network.
//
// Classification is heuristic: the engine only gives us text.
func ClassifyError(errMsg, debug string) ErrorCategory {
	combined := strings.ToLower(errMsg + " " + debug)
	if strings.TrimSpace(combined) == "" {
		return ErrCategoryUnknown
	}

	switch {
	case containsAny(combined, codecKeywords):
		return ErrCategoryCodec
	case containsAny(combined, resourceKeywords):
		return ErrCategoryResource
	case containsAny(combined, networkKeywords):
		return ErrCategoryNetwork
	default:
		return ErrCategoryUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
