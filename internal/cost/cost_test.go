package cost

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func cents(v int64) *int64 { return &v }

func TestTotal(t *testing.T) {
    assert.Equal(t, int64(0), Total(nil, nil))
    assert.Equal(t, int64(5000), Total(cents(5000), nil))
    assert.Equal(t, int64(2500), Total(nil, cents(2500)))
    assert.Equal(t, int64(7500), Total(cents(5000), cents(2500)))
}
