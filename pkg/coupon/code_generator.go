package coupon

import (
	"bookflower-loyalty/domain"
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodeGenerator struct {
	length int
}

func NewCodeGenerator() CodeGenerator {
	return &randomCodeGenerator{length: domain.CouponCodeLength}
}

func (g *randomCodeGenerator) Generate() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
