package memory

import (
	"testing"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/internal/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}
