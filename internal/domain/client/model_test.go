package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullName(t *testing.T) {
	c := &Client{FirstName: "Ana", MiddleName: " ", LastName: "Gómez", SecondLastName: "Ruiz"}
	assert.Equal(t, "Ana Gómez Ruiz", c.FullName())

	assert.Equal(t, "", (&Client{}).FullName())
}
