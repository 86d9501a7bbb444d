package coupon

import (
	"bookflower-loyalty/domain"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type catalogFile struct {
	Coupons []domain.CouponSeed `yaml:"coupons"`
}

// DefaultSeeds is the catalog used when no seed file is present.
var DefaultSeeds = []domain.CouponSeed{
	{
		Name:           "Americano Coupon",
		Type:           "americano",
		RequiredPoints: 500,
		Description:    "An americano at a partner cafe. Valid for 30 days.",
	},
	{
		Name:           "Cafe Latte Coupon",
		Type:           "latte",
		RequiredPoints: 800,
		Description:    "A cafe latte at a partner cafe. Valid for 30 days.",
	},
	{
		Name:           "Dessert Coupon",
		Type:           "dessert",
		RequiredPoints: 1000,
		Description:    "A dessert such as cake or cookies at a partner cafe. Valid for 30 days.",
	},
}

func LoadSeedFile(path string, validate *validator.Validate) ([]domain.CouponSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, seed := range file.Coupons {
		if err := validate.Struct(seed); err != nil {
			return nil, fmt.Errorf("coupon #%d in %s: %w", i+1, path, err)
		}
	}
	return file.Coupons, nil
}
