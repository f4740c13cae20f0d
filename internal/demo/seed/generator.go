package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/querybot/querybot/internal/query"
)

var (
	categories = []string{"Electronics", "Home Appliances", "Furniture", "Grocery"}
	regions    = []string{"North", "South", "East", "West"}
	cities     = []string{"Chennai", "Mumbai", "Delhi", "Bengaluru", "Hyderabad", "Pune", "Kolkata", "Ahmedabad"}
	segments   = []string{"Retail", "Wholesale", "Online"}
	carriers   = []string{"BlueDart", "DTDC", "Delhivery", "EcomExpress"}
)

const dateLayout = "2006-01-02"

// TableRows holds generated rows for one table, in column order.
type TableRows struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Dataset lists tables in an order that satisfies foreign keys.
type Dataset struct {
	Tables []TableRows
}

func (d Dataset) Table(name string) (TableRows, bool) {
	for _, table := range d.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return TableRows{}, false
}

type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

type product struct {
	id        int
	unitCost  float64
	unitPrice float64
}

type orderLine struct {
	productID int
	qty       int
}

func (g *Generator) Generate(sizes Sizes) Dataset {
	now := g.now()

	categoryRows := TableRows{Name: "categories", Columns: []string{"category_id", "name"}}
	for i, name := range categories {
		categoryRows.Rows = append(categoryRows.Rows, []any{i + 1, name})
	}

	productRows := TableRows{Name: "products", Columns: []string{"product_id", "sku", "name", "category_id", "unit_cost", "unit_price", "reorder_point", "reorder_qty"}}
	products := make([]product, 0, sizes.Products)
	for i := 1; i <= sizes.Products; i++ {
		cost := round2(5 + g.rnd.Float64()*195)
		price := round2(cost * (1.2 + g.rnd.Float64()*0.6))
		products = append(products, product{id: i, unitCost: cost, unitPrice: price})
		productRows.Rows = append(productRows.Rows, []any{
			i,
			fmt.Sprintf("SKU-%d", 1000+i),
			fmt.Sprintf("Product %02d", i),
			g.between(1, len(categories)),
			cost,
			price,
			g.between(5, 30),
			g.between(20, 100),
		})
	}

	supplierRows := TableRows{Name: "suppliers", Columns: []string{"supplier_id", "name", "contact_email", "lead_time_days"}}
	for i := 1; i <= sizes.Suppliers; i++ {
		supplierRows.Rows = append(supplierRows.Rows, []any{i, fmt.Sprintf("Supplier %d", i), fmt.Sprintf("supplier%d@example.com", i), g.between(3, 14)})
	}

	warehouseRows := TableRows{Name: "warehouses", Columns: []string{"warehouse_id", "code", "name", "city", "region"}}
	for i, cityIndex := range g.rnd.Perm(len(cities))[:sizes.Warehouses] {
		id := i + 1
		warehouseRows.Rows = append(warehouseRows.Rows, []any{id, fmt.Sprintf("W%02d", id), fmt.Sprintf("Warehouse %d", id), cities[cityIndex], pickOne(g.rnd, regions)})
	}

	customerRows := TableRows{Name: "customers", Columns: []string{"customer_id", "name", "city", "region", "segment"}}
	for i := 1; i <= sizes.Customers; i++ {
		customerRows.Rows = append(customerRows.Rows, []any{i, fmt.Sprintf("Customer %03d", i), pickOne(g.rnd, cities), pickOne(g.rnd, regions), pickOne(g.rnd, segments)})
	}

	carrierRows := TableRows{Name: "carriers", Columns: []string{"carrier_id", "name"}}
	for i, name := range carriers {
		carrierRows.Rows = append(carrierRows.Rows, []any{i + 1, name})
	}

	inventoryRows := TableRows{Name: "inventory", Columns: []string{"warehouse_id", "product_id", "on_hand", "allocated", "safety_stock"}}
	for w := 1; w <= sizes.Warehouses; w++ {
		for _, p := range products {
			onHand := g.between(0, 500)
			inventoryRows.Rows = append(inventoryRows.Rows, []any{w, p.id, onHand, g.between(0, min(onHand, 100)), g.between(5, 30)})
		}
	}

	poRows := TableRows{Name: "purchase_orders", Columns: []string{"po_id", "supplier_id", "order_date", "expected_date", "status"}}
	poItemRows := TableRows{Name: "purchase_order_items", Columns: []string{"po_item_id", "po_id", "product_id", "qty_ordered", "unit_cost", "qty_received"}}
	for poID := 1; poID <= sizes.PurchaseOrders; poID++ {
		ordered := g.daysAgo(now, 30, 120)
		expected := ordered.AddDate(0, 0, g.between(3, 14))
		status := pickOne(g.rnd, []string{"OPEN", "PARTIAL", "CLOSED"})
		poRows.Rows = append(poRows.Rows, []any{poID, g.between(1, sizes.Suppliers), ordered.Format(dateLayout), expected.Format(dateLayout), status})
		for n := g.between(2, 5); n > 0; n-- {
			p := products[g.rnd.Intn(len(products))]
			qty := g.between(10, 200)
			received := qty
			if status != "CLOSED" {
				received = g.between(0, qty)
			}
			poItemRows.Rows = append(poItemRows.Rows, []any{len(poItemRows.Rows) + 1, poID, p.id, qty, p.unitCost, received})
		}
	}

	soRows := TableRows{Name: "sales_orders", Columns: []string{"so_id", "customer_id", "order_date", "status"}}
	soItemRows := TableRows{Name: "sales_order_items", Columns: []string{"so_item_id", "so_id", "product_id", "qty", "unit_price"}}
	shipmentRows := TableRows{Name: "shipments", Columns: []string{"shipment_id", "so_id", "warehouse_id", "ship_date", "delivered_date", "carrier_id", "on_time"}}
	shipmentItemRows := TableRows{Name: "shipment_items", Columns: []string{"shipment_item_id", "shipment_id", "product_id", "qty"}}
	for soID := 1; soID <= sizes.SalesOrders; soID++ {
		ordered := g.daysAgo(now, 0, 90)
		status := pickOne(g.rnd, []string{"OPEN", "ALLOCATED", "SHIPPED"})
		soRows.Rows = append(soRows.Rows, []any{soID, g.between(1, sizes.Customers), ordered.Format(dateLayout), status})

		lines := make([]orderLine, 0, 4)
		for n := g.between(1, 4); n > 0; n-- {
			p := products[g.rnd.Intn(len(products))]
			line := orderLine{productID: p.id, qty: g.between(1, 20)}
			lines = append(lines, line)
			soItemRows.Rows = append(soItemRows.Rows, []any{len(soItemRows.Rows) + 1, soID, line.productID, line.qty, p.unitPrice})
		}
		if status != "SHIPPED" {
			continue
		}

		shipped := ordered.AddDate(0, 0, g.between(0, 5))
		transitDays := g.between(1, 7)
		delivered := shipped.AddDate(0, 0, transitDays)
		onTime := 0
		if transitDays <= 5 {
			onTime = 1
		}
		shipmentID := len(shipmentRows.Rows) + 1
		shipmentRows.Rows = append(shipmentRows.Rows, []any{
			shipmentID, soID, g.between(1, sizes.Warehouses), shipped.Format(dateLayout), delivered.Format(dateLayout), g.between(1, len(carriers)), onTime,
		})
		for _, line := range lines {
			shipmentItemRows.Rows = append(shipmentItemRows.Rows, []any{len(shipmentItemRows.Rows) + 1, shipmentID, line.productID, line.qty})
		}
	}

	return Dataset{Tables: []TableRows{
		categoryRows, productRows, supplierRows, warehouseRows, customerRows, carrierRows,
		inventoryRows, poRows, poItemRows, soRows, soItemRows, shipmentRows, shipmentItemRows,
	}}
}

// InsertScript renders the dataset as INSERT statements, one per table.
func InsertScript(d Dataset) string {
	var b strings.Builder
	for _, table := range d.Tables {
		if len(table.Rows) == 0 {
			continue
		}
		quoted := make([]string, len(table.Columns))
		for i, column := range table.Columns {
			quoted[i] = query.QuoteIdent(column)
		}
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES\n", query.QuoteIdent(table.Name), strings.Join(quoted, ", "))
		for i, row := range table.Rows {
			values := make([]string, len(row))
			for j, value := range row {
				values[j] = sqlValue(value)
			}
			separator := ",\n"
			if i == len(table.Rows)-1 {
				separator = ";\n"
			}
			b.WriteString("  (" + strings.Join(values, ", ") + ")" + separator)
		}
	}
	return b.String()
}

func sqlValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', 2, 64)
	case string:
		return query.QuoteLiteral(typed)
	default:
		return query.QuoteLiteral(fmt.Sprint(typed))
	}
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *Generator) daysAgo(now time.Time, minDays, maxDays int) time.Time {
	return now.AddDate(0, 0, -g.between(minDays, maxDays))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
