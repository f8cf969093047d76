package rerrcode

import (
	"fmt"
	"sort"
	"sync"
)

// ErrorCode represents the error type. Its numeric value is assigned
// in registration order and should not be relied upon as a stable
// identifier — use ErrorDescriptor.Value, which String returns, for
// that.
type ErrorCode int

// ErrorDescriptor provides relevant information about a given error
// code.
type ErrorDescriptor struct {
	// Code is the error code that this descriptor describes.
	Code ErrorCode

	// Value provides a unique, string key, often captialized with
	// underscores, to identify the error code. ErrorCode.String
	// returns this value.
	Value string

	// Message is a short, human readable description of the error
	// condition, displayed in user interfaces. It may contain "%s"
	// substitutions filled in by WithArgs.
	Message string

	// Description provides a complete account of the errors purpose,
	// suitable for use in documentation.
	Description string

	// ExitCode is the process exit status a CLI entry point should
	// return when this error reaches it, directly or wrapped.
	ExitCode int
}

// ErrorCoder is implemented by error types that carry an ErrorCode.
type ErrorCoder interface {
	ErrorCode() ErrorCode
}

var (
	errorCodeToDescriptors = map[ErrorCode]ErrorDescriptor{}
	idToDescriptors        = map[string]ErrorDescriptor{}
	groupToDescriptors     = map[string][]ErrorDescriptor{}
)

var (
	nextCode     = 1000
	registerLock sync.Mutex
)

// Register makes the passed-in error known to the environment and
// returns a new ErrorCode uniquely identifying it.
func Register(group string, descriptor ErrorDescriptor) ErrorCode {
	registerLock.Lock()
	defer registerLock.Unlock()

	descriptor.Code = ErrorCode(nextCode)

	if _, ok := idToDescriptors[descriptor.Value]; ok {
		panic(fmt.Sprintf("rerrcode: value %q is already registered", descriptor.Value))
	}
	if _, ok := errorCodeToDescriptors[descriptor.Code]; ok {
		panic(fmt.Sprintf("rerrcode: code %v is already registered", descriptor.Code))
	}

	groupToDescriptors[group] = append(groupToDescriptors[group], descriptor)
	errorCodeToDescriptors[descriptor.Code] = descriptor
	idToDescriptors[descriptor.Value] = descriptor

	nextCode++
	return descriptor.Code
}

type byValue []ErrorDescriptor

func (a byValue) Len() int           { return len(a) }
func (a byValue) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byValue) Less(i, j int) bool { return a[i].Value < a[j].Value }

// GetGroupNames returns the list of error group names that are
// registered.
func GetGroupNames() []string {
	var keys []string
	for k := range groupToDescriptors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetErrorCodeGroup returns the named group of error descriptors.
func GetErrorCodeGroup(name string) []ErrorDescriptor {
	desc := groupToDescriptors[name]
	sort.Sort(byValue(desc))
	return desc
}
