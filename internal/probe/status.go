package probe

import (
	"fmt"
	"strings"
)

// Status is a status code returned by the renderer runtime. Success is zero
// and failures are negative.
type Status int

const (
	StatusSuccess                Status = 0
	StatusComputeAPINotSupported Status = -1
	StatusOutOfSystemMemory      Status = -2
	StatusOutOfVideoMemory       Status = -3
	StatusInvalidAPIVersion      Status = -4
	StatusInvalidParameter       Status = -12
	StatusUnsupported            Status = -18
	StatusInternalError          Status = -20
)

var statusNames = map[Status]string{
	StatusSuccess:                "success",
	StatusComputeAPINotSupported: "compute_api_not_supported",
	StatusOutOfSystemMemory:      "out_of_system_memory",
	StatusOutOfVideoMemory:       "out_of_video_memory",
	StatusInvalidAPIVersion:      "invalid_api_version",
	StatusInvalidParameter:       "invalid_parameter",
	StatusUnsupported:            "unsupported",
	StatusInternalError:          "internal_error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// OK reports whether s is StatusSuccess.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// ParseStatus converts a status name such as "unsupported" to a Status.
// The empty string is treated as success.
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "ok" {
		return StatusSuccess, nil
	}
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}
