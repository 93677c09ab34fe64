// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"testing"

	"github.com/danielhkuo/now-showing/store"
	"github.com/danielhkuo/now-showing/store/storetest"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
