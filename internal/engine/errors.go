package engine

import "fmt"

// Kind identifies the symbolic taxonomy of a condition raised by the engine.
// The facade package switches on Kind to rewrite conditions to the exact
// user-facing message fragments of the mocked command line tools; it never
// leaks *Error itself past that boundary.
type Kind int

// Condition kinds raised by the engine. Names mirror spec.md §7.
const (
	// DatasetNameError: invalid name string.
	DatasetNameError Kind = iota
	// DatasetTypeError: wrong variant for the requested operation.
	DatasetTypeError
	// DatasetExistsError: name collision in a sibling collection.
	DatasetExistsError
	// InactiveDatasetError: operation attempted on a non-active dataset.
	InactiveDatasetError
	// InvalidArgumentError: malformed recursive args or bad rename target.
	InvalidArgumentError
	// InvalidFileTypeError: archive/restore encountered an unsupported node.
	InvalidFileTypeError
	// UnmountableError: a mount precondition failed.
	UnmountableError
	// OverlayMountError: another dataset is already mounted at the
	// mountpoint. Whether the directory there holds content is not checked.
	OverlayMountError
	// FilesystemBusyError: unmount attempted while a submount is registered.
	FilesystemBusyError
	// SnapshotHoldError: destroy attempted on a held snapshot.
	SnapshotHoldError
	// DescendantError: non-recursive destroy over a dataset with descendants.
	DescendantError
	// DependantError: destroy would leave a clone's origin dangling.
	DependantError
	// ReadOnlyPropertyError: write attempted to a read-only property.
	ReadOnlyPropertyError
	// UnsupportedPropertyError: property not valid for this dataset type.
	UnsupportedPropertyError
	// BadHumanNumberError: unparseable human-readable size.
	BadHumanNumberError
	// NoSuchPoolError: destroyPool (or pool lookup) on a missing pool.
	NoSuchPoolError
	// NotImplementedError: property or command outside the supported set.
	NotImplementedError
)

var kindNames = map[Kind]string{
	DatasetNameError:         "DatasetNameError",
	DatasetTypeError:         "DatasetTypeError",
	DatasetExistsError:       "DatasetExistsError",
	InactiveDatasetError:     "InactiveDatasetError",
	InvalidArgumentError:     "InvalidArgumentError",
	InvalidFileTypeError:     "InvalidFileTypeError",
	UnmountableError:         "UnmountableError",
	OverlayMountError:        "OverlayMountError",
	FilesystemBusyError:      "FilesystemBusyError",
	SnapshotHoldError:        "SnapshotHoldError",
	DescendantError:          "DescendantError",
	DependantError:           "DependantError",
	ReadOnlyPropertyError:    "ReadOnlyPropertyError",
	UnsupportedPropertyError: "UnsupportedPropertyError",
	BadHumanNumberError:      "BadHumanNumberError",
	NoSuchPoolError:          "NoSuchPoolError",
	NotImplementedError:      "NotImplementedError",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "UnknownError"
}

// Error is the structured condition raised by the core. It carries a
// symbolic Kind alongside the message, matching spec.md §7's taxonomy.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Is allows errors.Is(err, DatasetExistsError.sentinel()) style matching: two
// *Error values match when their Kinds are equal, whatever their messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// newErr builds a *Error of the given kind with a formatted message.
func newErr(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...)}
}

// sentinel returns a zero-message *Error usable with errors.Is to test Kind.
func (k Kind) sentinel() *Error {
	return &Error{Kind: k}
}
