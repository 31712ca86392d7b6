package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/missioncontrol/pkg/storage"
)

// WrapStorageReadError maps a missing object to NotFound and anything else
// to Unavailable.
func WrapStorageReadError(target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Unavailable, "document store unavailable", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapStorageWriteError(target string, err error) error {
	return NewError(Unavailable, "document store unavailable", fmt.Errorf("failed to write %s: %w", target, err))
}
