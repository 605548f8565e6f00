//go:build tinygo || !cgo

package skyfxaux

import (
	"errors"

	"github.com/soypat/skyfx"
)

func ui(root skyfx.Node, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
