// Package scenario holds the state tables of every warehouse workflow.
package scenario

import (
	"fmt"
	"sort"

	"shopfloor_go/internal/engine"
)

var factories = map[string]func() *engine.Scenario{
	"checkout":               Checkout,
	"checkout_scan_and_pack": CheckoutScanAndPack,
	"cluster_picking":        ClusterPicking,
	"cluster_batch_picking":  ClusterBatchPicking,
	"inventory":              Inventory,
	"reception":              Reception,
	"stock_batch_transfer":   StockBatchTransfer,
	"input_stock_transfer":   InputStockTransfer,
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds a fresh table; tables are never shared between machines.
func Lookup(name string) (*engine.Scenario, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return f(), nil
}
