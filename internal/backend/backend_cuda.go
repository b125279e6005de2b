//go:build cuda

package backend

import (
	"github.com/samcharles93/blasgo/internal/backend/cuda"
	"github.com/samcharles93/blasgo/internal/backend/native"
)

const cudaBuilt = true

func newCUDA() (native.Runtime, error) {
	return cuda.New()
}
