package postgres

// SQL queries for sales, reference data and the report archive.

const (
	// querySaveSale appends a sale. seq is assigned by the sequence and gives
	// the insertion order every scan uses.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveSale = `
		INSERT INTO sales (
			id, customer_id, product_id, quantity,
			unit_revenue, total_revenue, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING seq
	`

	// querySalesInWindow returns sales in a closed window, both bounds inclusive.
	querySalesInWindow = `
		SELECT
			id, customer_id, product_id, quantity,
			unit_revenue, total_revenue, occurred_at, seq
		FROM sales
		WHERE occurred_at >= $1
		  AND occurred_at <= $2
		ORDER BY seq ASC
	`

	// querySalesSince returns sales for an open-ended window.
	querySalesSince = `
		SELECT
			id, customer_id, product_id, quantity,
			unit_revenue, total_revenue, occurred_at, seq
		FROM sales
		WHERE occurred_at >= $1
		ORDER BY seq ASC
	`

	queryResolveProduct = `
		SELECT id, name, category, price
		FROM products
		WHERE id = $1
	`

	queryResolveCustomer = `
		SELECT id, name, region, type
		FROM customers
		WHERE id = $1
	`

	queryAppendReport = `
		INSERT INTO reports (report_date, total_revenue, avg_order_value)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	// queryListReports orders ties on report_date by newest insertion first.
	queryListReports = `
		SELECT id, report_date, total_revenue, avg_order_value
		FROM reports
		ORDER BY report_date DESC, id DESC
	`
)
