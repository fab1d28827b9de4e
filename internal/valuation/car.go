package valuation

import (
	"fmt"
	"strings"

	"car-valuation/internal/apperror"

	"github.com/shopspring/decimal"
)

// Car описывает автомобиль, для которого рассчитывается остаточная стоимость.
// Калькулятор никогда не изменяет переданную запись.
type Car struct {
	AgeInMonths            int
	NumberOfMiles          int
	NumberOfPreviousOwners int
	NumberOfCollisions     int
	PurchaseValue          decimal.Decimal
}

// Validate проверяет, что все счётчики и цена покупки неотрицательны.
func (c Car) Validate() error {
	switch {
	case c.AgeInMonths < 0:
		return apperror.InvalidField("age_in_months", "age_in_months must be non-negative")
	case c.NumberOfMiles < 0:
		return apperror.InvalidField("number_of_miles", "number_of_miles must be non-negative")
	case c.NumberOfPreviousOwners < 0:
		return apperror.InvalidField("number_of_previous_owners", "number_of_previous_owners must be non-negative")
	case c.NumberOfCollisions < 0:
		return apperror.InvalidField("number_of_collisions", "number_of_collisions must be non-negative")
	case c.PurchaseValue.IsNegative():
		return apperror.InvalidField("purchase_value", "purchase_value must be non-negative")
	}
	return nil
}

// Method определяет, как ставка за единицу превращается в множитель.
type Method string

const (
	// MethodLinear снимает rate*units от значения на входе шага.
	MethodLinear Method = "linear"
	// MethodCompound применяет (1-rate)^units.
	MethodCompound Method = "compound"
)

// ParseMethod разбирает название метода; пустая строка означает MethodLinear.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodLinear:
		return MethodLinear, nil
	case MethodCompound:
		return MethodCompound, nil
	default:
		return "", apperror.Validation(fmt.Sprintf("unknown valuation method %q", s), nil)
	}
}

// Step идентифицирует шаг конвейера.
type Step string

const (
	StepAge            Step = "age"
	StepMileage        Step = "mileage"
	StepPreviousOwners Step = "previous_owners"
	StepCollisions     Step = "collisions"
	StepOwnerBonus     Step = "owner_bonus"
)

// Adjustment фиксирует один применённый шаг: сколько единиц учтено,
// множитель и текущую стоимость после шага (без усечения).
type Adjustment struct {
	Step   Step
	Units  int
	Factor decimal.Decimal
	Value  decimal.Decimal
}

// Breakdown содержит итоговую цену и цепочку шагов, которые к ней привели.
type Breakdown struct {
	Method      Method
	Adjustments []Adjustment
	Price       decimal.Decimal
}
