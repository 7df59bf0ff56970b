package types

import (
	"fmt"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// StorageType selects the backend documents are written to
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
	StorageMinio StorageType = "minio"
)

func (t StorageType) Validate() error {
	switch t {
	case StorageLocal, StorageS3, StorageMinio:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid storage type: %s", t)).
		WithHint("storage.type must be one of local, s3 or minio").
		Mark(ierr.ErrValidation)
}
