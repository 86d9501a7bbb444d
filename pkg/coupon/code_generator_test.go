package coupon_test

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/pkg/coupon"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGeneratorFormat(t *testing.T) {
	generator := coupon.NewCodeGenerator()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := generator.Generate()
		require.NoError(t, err)
		assert.Len(t, code, domain.CouponCodeLength)
		assert.Regexp(t, "^[A-Z0-9]+$", code)
		seen[code] = true
	}
	assert.Len(t, seen, 200)
}
