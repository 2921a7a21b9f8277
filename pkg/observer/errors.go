package observer

import (
	"errors"
	"fmt"

	derrors "github.com/vango-dev/defo/internal/errors"
)

// Sentinel errors for errors.Is checks.
var (
	ErrDuplicateName       = errors.New("duplicate observer name")
	ErrUnknownObserver     = errors.New("unknown observer")
	ErrFactoryConstruction = errors.New("observer factory failed")
	ErrTeardown            = errors.New("observer teardown failed")
	ErrInvalidName         = errors.New("invalid observer name")
	ErrInvalidPrefix       = errors.New("invalid prefix")
	ErrNilFactory          = errors.New("nil observer factory")
	ErrDisposed            = errors.New("dispatcher disposed")
)

// DuplicateNameError reports a second registration under the same name.
type DuplicateNameError struct {
	Name Name
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("observer %q is already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// UnknownObserverError reports an attribute under the prefix whose name has
// no registered factory.
type UnknownObserverError struct {
	Name Name
	Key  string
}

func (e *UnknownObserverError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("no observer registered for %q (attribute %s)", e.Name, e.Key)
	}
	return fmt.Sprintf("no observer registered for %q", e.Name)
}

func (e *UnknownObserverError) Is(target error) bool { return target == ErrUnknownObserver }

// FactoryConstructionError reports a factory that returned an error or
// panicked.
type FactoryConstructionError struct {
	Name    Name
	Element string
	Err     error
}

func (e *FactoryConstructionError) Error() string {
	return fmt.Sprintf("observer %q on %s: construction failed: %v", e.Name, e.Element, e.Err)
}

func (e *FactoryConstructionError) Unwrap() error { return e.Err }

func (e *FactoryConstructionError) Is(target error) bool { return target == ErrFactoryConstruction }

// TeardownError reports an instance whose Destroy returned an error or
// panicked. The binding is removed regardless.
type TeardownError struct {
	Name    Name
	Element string
	Err     error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("observer %q on %s: teardown failed: %v", e.Name, e.Element, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

func (e *TeardownError) Is(target error) bool { return target == ErrTeardown }

// InvalidNameError reports a name or prefix that does not follow the
// attribute naming rules.
type InvalidNameError struct {
	Name   string
	Prefix bool
}

func (e *InvalidNameError) Error() string {
	if e.Prefix {
		return fmt.Sprintf("invalid prefix %q", e.Name)
	}
	return fmt.Sprintf("invalid observer name %q", e.Name)
}

func (e *InvalidNameError) Is(target error) bool {
	if e.Prefix {
		return target == ErrInvalidPrefix
	}
	return target == ErrInvalidName
}

// Describe converts an observer error into a coded error for terminal and
// JSON output. Errors from other packages are wrapped as-is.
func Describe(err error) *derrors.Error {
	var (
		dup      *DuplicateNameError
		unknown  *UnknownObserverError
		factory  *FactoryConstructionError
		teardown *TeardownError
		invalid  *InvalidNameError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &dup):
		return derrors.New("D001").WithSubject(string(dup.Name)).
			WithSuggestion("Register each view observer under a single name")
	case errors.As(err, &unknown):
		return derrors.New("D002").WithSubject(unknown.Key)
	case errors.As(err, &factory):
		return derrors.New("D003").WithSubject(string(factory.Name)).Wrap(factory.Err)
	case errors.As(err, &teardown):
		return derrors.New("D004").WithSubject(string(teardown.Name)).Wrap(teardown.Err)
	case errors.As(err, &invalid):
		if invalid.Prefix {
			return derrors.New("D006").WithSubject(invalid.Name)
		}
		return derrors.New("D005").WithSubject(invalid.Name).
			WithExample(`views := map[observer.Name]observer.Factory{"photo-gallery": NewGallery}`)
	case errors.Is(err, ErrNilFactory):
		return derrors.New("D007").Wrap(err)
	case errors.Is(err, ErrDisposed):
		return derrors.New("D008")
	default:
		return derrors.Newf(derrors.CategoryBinding, "%s", err.Error()).Wrap(err)
	}
}
