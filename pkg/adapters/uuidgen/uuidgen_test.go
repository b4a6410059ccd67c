package uuidgen_test

import (
	"testing"

	"github.com/aretw0/composable/pkg/adapters/uuidgen"
	"github.com/aretw0/composable/pkg/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIncrementing(t *testing.T) {
	var gen ports.UUIDGenerator = uuidgen.Incrementing()
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", gen().String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", gen().String())
	assert.Equal(t, "00000000-0000-0000-0000-00000000000a", func() string {
		for i := 0; i < 8; i++ {
			gen()
		}
		return gen().String()
	}())
}

func TestLive_Unique(t *testing.T) {
	gen := uuidgen.Live()
	assert.NotEqual(t, gen(), gen())
}

func TestConstant(t *testing.T) {
	id := uuid.MustParse("deadbeef-dead-beef-dead-beefdeadbeef")
	gen := uuidgen.Constant(id)
	assert.Equal(t, id, gen())
	assert.Equal(t, id, gen())
}
