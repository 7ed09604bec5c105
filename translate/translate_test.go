package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLocales()
	assert.Equal("opcode unknown", From("opcode unknown"))
	assert.Equal("line 3 offset 4", From("line %d offset %d", 3, 4))

	SetLocales("fr-FR", "en-US")
	assert.Equal("address out of range", From("address out of range"))
}
