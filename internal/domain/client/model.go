package client

import "strings"

// Client is the billed party of an invoice. Read only for this service.
type Client struct {
	ID             int64  `db:"id" json:"id"`
	TenantID       int64  `db:"tenant_id" json:"tenant_id"`
	FirstName      string `db:"primer_nombre" json:"first_name"`
	MiddleName     string `db:"segundo_nombre" json:"middle_name"`
	LastName       string `db:"primer_apellido" json:"last_name"`
	SecondLastName string `db:"segundo_apellido" json:"second_last_name"`
	Email          string `db:"correo" json:"email"`
	Identification string `db:"identificacion" json:"identification"`
}

// FullName joins every non empty name part
func (c *Client) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.FirstName, c.MiddleName, c.LastName, c.SecondLastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
