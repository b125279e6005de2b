//go:build !cuda

package backend

import (
	"github.com/pkg/errors"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

const cudaBuilt = false

var errCUDAUnavailable = errors.New("cuda backend is not available in this build")

func newCUDA() (native.Runtime, error) {
	return nil, errCUDAUnavailable
}
