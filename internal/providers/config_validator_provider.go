package providers

import (
	"fmt"
	"leetfresh/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.Error())
	}

	b := cv.conf.Bands
	if b.FreshDays >= b.GoodDays || b.GoodDays >= b.ReviewSoonDays {
		return fmt.Errorf("invalid config: band bounds must increase, got %d/%d/%d", b.FreshDays, b.GoodDays, b.ReviewSoonDays)
	}
	return nil
}
