package seed

import (
	"fmt"
	"strconv"
	"strings"
)

type LookupFunc func(string) (string, bool)

// Sizes sets how many rows the generator produces for the main entities.
// Inventory, order items and shipments follow from these.
type Sizes struct {
	Products       int
	Suppliers      int
	Warehouses     int
	Customers      int
	PurchaseOrders int
	SalesOrders    int
}

type Config struct {
	Path      string
	Overwrite bool
	Seed      int64
	Sizes     Sizes
}

func DefaultConfig() Config {
	return Config{
		Path:      "supply_chain.db",
		Overwrite: false,
		Seed:      42,
		Sizes: Sizes{
			Products:       20,
			Suppliers:      5,
			Warehouses:     3,
			Customers:      30,
			PurchaseOrders: 30,
			SalesOrders:    100,
		},
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	appliers := []func() error{
		func() error { return applyString(lookup, "QUERYBOT_SEED_DB_PATH", &cfg.Path) },
		func() error { return applyBool(lookup, "QUERYBOT_SEED_OVERWRITE", &cfg.Overwrite) },
		func() error { return applyInt64(lookup, "QUERYBOT_SEED", &cfg.Seed) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_PRODUCTS", &cfg.Sizes.Products) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_SUPPLIERS", &cfg.Sizes.Suppliers) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_WAREHOUSES", &cfg.Sizes.Warehouses) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_CUSTOMERS", &cfg.Sizes.Customers) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_PURCHASE_ORDERS", &cfg.Sizes.PurchaseOrders) },
		func() error { return applyInt(lookup, "QUERYBOT_SEED_SALES_ORDERS", &cfg.Sizes.SalesOrders) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	if strings.TrimSpace(cfg.Path) == "" {
		return Config{}, fmt.Errorf("QUERYBOT_SEED_DB_PATH is required")
	}
	if err := cfg.Sizes.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s Sizes) validate() error {
	if s.Products <= 0 {
		return fmt.Errorf("QUERYBOT_SEED_PRODUCTS must be > 0")
	}
	if s.Suppliers <= 0 {
		return fmt.Errorf("QUERYBOT_SEED_SUPPLIERS must be > 0")
	}
	if s.Warehouses <= 0 || s.Warehouses > len(cities) {
		return fmt.Errorf("QUERYBOT_SEED_WAREHOUSES must be between 1 and %d", len(cities))
	}
	if s.Customers <= 0 {
		return fmt.Errorf("QUERYBOT_SEED_CUSTOMERS must be > 0")
	}
	if s.PurchaseOrders < 0 {
		return fmt.Errorf("QUERYBOT_SEED_PURCHASE_ORDERS must be >= 0")
	}
	if s.SalesOrders < 0 {
		return fmt.Errorf("QUERYBOT_SEED_SALES_ORDERS must be >= 0")
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
