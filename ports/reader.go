package ports

import (
	"context"

	"vizgo/domain/dataset"
)

// DatasetReaderPort loads a dataset file into memory.
type DatasetReaderPort interface {
	Read(ctx context.Context, path string) (*dataset.Frame, error)
}
