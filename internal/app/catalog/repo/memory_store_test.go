package repo

import (
	"testing"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo/storetest"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clk clock.Clock) contracts.Store {
		return NewMemoryStore(clk)
	})
}
