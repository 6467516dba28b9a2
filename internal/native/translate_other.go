//go:build !unix

package native

import "github.com/absfs/unifs"

func errnoKind(error) (unifs.Kind, bool) {
	return unifs.Other, false
}
