package tenant

// Tenant is the company issuing invoices
type Tenant struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"nombre" json:"name"`
}
