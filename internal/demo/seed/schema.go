package seed

const schemaSQL = `
CREATE TABLE categories (
  category_id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE products (
  product_id INTEGER PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category_id INTEGER NOT NULL,
  unit_cost REAL NOT NULL,
  unit_price REAL NOT NULL,
  reorder_point INTEGER NOT NULL DEFAULT 10,
  reorder_qty INTEGER NOT NULL DEFAULT 50,
  FOREIGN KEY (category_id) REFERENCES categories(category_id)
);

CREATE TABLE suppliers (
  supplier_id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  contact_email TEXT,
  lead_time_days INTEGER NOT NULL DEFAULT 7
);

CREATE TABLE warehouses (
  warehouse_id INTEGER PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  city TEXT NOT NULL,
  region TEXT NOT NULL
);

CREATE TABLE customers (
  customer_id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  city TEXT NOT NULL,
  region TEXT NOT NULL,
  segment TEXT NOT NULL
);

CREATE TABLE inventory (
  warehouse_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  on_hand INTEGER NOT NULL DEFAULT 0,
  allocated INTEGER NOT NULL DEFAULT 0,
  safety_stock INTEGER NOT NULL DEFAULT 5,
  PRIMARY KEY (warehouse_id, product_id),
  FOREIGN KEY (warehouse_id) REFERENCES warehouses(warehouse_id),
  FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE carriers (
  carrier_id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE purchase_orders (
  po_id INTEGER PRIMARY KEY,
  supplier_id INTEGER NOT NULL,
  order_date TEXT NOT NULL,
  expected_date TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('OPEN','PARTIAL','CLOSED','CANCELLED')),
  FOREIGN KEY (supplier_id) REFERENCES suppliers(supplier_id)
);

CREATE TABLE purchase_order_items (
  po_item_id INTEGER PRIMARY KEY,
  po_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  qty_ordered INTEGER NOT NULL,
  unit_cost REAL NOT NULL,
  qty_received INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY (po_id) REFERENCES purchase_orders(po_id),
  FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE sales_orders (
  so_id INTEGER PRIMARY KEY,
  customer_id INTEGER NOT NULL,
  order_date TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('OPEN','ALLOCATED','SHIPPED','CANCELLED')),
  FOREIGN KEY (customer_id) REFERENCES customers(customer_id)
);

CREATE TABLE sales_order_items (
  so_item_id INTEGER PRIMARY KEY,
  so_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  unit_price REAL NOT NULL,
  FOREIGN KEY (so_id) REFERENCES sales_orders(so_id),
  FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE TABLE shipments (
  shipment_id INTEGER PRIMARY KEY,
  so_id INTEGER NOT NULL,
  warehouse_id INTEGER NOT NULL,
  ship_date TEXT NOT NULL,
  delivered_date TEXT,
  carrier_id INTEGER,
  on_time INTEGER NOT NULL CHECK (on_time IN (0,1)),
  FOREIGN KEY (so_id) REFERENCES sales_orders(so_id),
  FOREIGN KEY (warehouse_id) REFERENCES warehouses(warehouse_id),
  FOREIGN KEY (carrier_id) REFERENCES carriers(carrier_id)
);

CREATE TABLE shipment_items (
  shipment_item_id INTEGER PRIMARY KEY,
  shipment_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  FOREIGN KEY (shipment_id) REFERENCES shipments(shipment_id),
  FOREIGN KEY (product_id) REFERENCES products(product_id)
);

CREATE VIEW v_inventory_turnover AS
SELECT p.product_id, p.name,
       SUM(CASE WHEN soi.qty IS NOT NULL THEN soi.qty ELSE 0 END) AS units_sold,
       AVG(NULLIF(i.on_hand, 0)) AS avg_inventory
FROM products p
LEFT JOIN sales_order_items soi ON soi.product_id = p.product_id
LEFT JOIN inventory i ON i.product_id = p.product_id
GROUP BY p.product_id, p.name;

CREATE VIEW v_on_time_delivery AS
SELECT strftime('%Y-%m', ship_date) AS month,
       COUNT(*) AS total_shipments,
       SUM(on_time) AS on_time_shipments,
       ROUND(100.0 * SUM(on_time) / NULLIF(COUNT(*), 0), 2) AS on_time_pct
FROM shipments
GROUP BY strftime('%Y-%m', ship_date)
ORDER BY month;
`
