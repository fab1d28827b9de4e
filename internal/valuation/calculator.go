package valuation

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	maxAgeInMonths = 12 * 10
	maxKiloMiles   = 150
	maxCollisions  = 5
	milesPerUnit   = 1000

	// Количество значащих цифр при переводе float64-множителя в decimal.
	factorDigits = 15
)

var (
	one = decimal.NewFromInt(1)

	ageRate        = decimal.RequireFromString("0.005")
	mileRate       = decimal.RequireFromString("0.002")
	collisionRate  = decimal.RequireFromString("0.02")
	ownerDeduction = decimal.RequireFromString("0.75")
	ownerAdduction = decimal.RequireFromString("1.10")
)

// Calculator рассчитывает остаточную стоимость подержанного автомобиля.
// Не содержит изменяемого состояния и безопасен для конкурентного использования.
type Calculator struct {
	method Method
}

// NewCalculator создаёт калькулятор; пустой метод означает MethodLinear.
func NewCalculator(method Method) *Calculator {
	if method == "" {
		method = MethodLinear
	}
	return &Calculator{method: method}
}

// Method возвращает метод расчёта множителей.
func (c *Calculator) Method() Method {
	return c.method
}

// ComputePrice возвращает стоимость автомобиля, усечённую до копеек.
func (c *Calculator) ComputePrice(car Car) (decimal.Decimal, error) {
	b, err := c.Explain(car)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Price, nil
}

// Explain прогоняет конвейер и возвращает цену вместе с каждым шагом.
//
// Порядок: возраст, пробег, владельцы, аварии, бонус за отсутствие владельцев.
// Скидка за 3+ владельцев применяется до аварий, бонус +10% только после них.
func (c *Calculator) Explain(car Car) (*Breakdown, error) {
	if err := car.Validate(); err != nil {
		return nil, err
	}

	b := &Breakdown{
		Method:      c.method,
		Adjustments: make([]Adjustment, 0, 5),
	}

	value := car.PurchaseValue

	units := ageUnits(car.AgeInMonths)
	value = b.apply(value, StepAge, units, c.factor(ageRate, units))

	units = mileageUnits(car.NumberOfMiles)
	value = b.apply(value, StepMileage, units, c.factor(mileRate, units))

	factor, bonusPending := ownerFactor(car.NumberOfPreviousOwners)
	value = b.apply(value, StepPreviousOwners, car.NumberOfPreviousOwners, factor)

	units = collisionUnits(car.NumberOfCollisions)
	value = b.apply(value, StepCollisions, units, c.factor(collisionRate, units))

	if bonusPending {
		value = b.apply(value, StepOwnerBonus, 0, ownerAdduction)
	}

	b.Price = Truncate(value)
	return b, nil
}

// Truncate отбрасывает всё после второго знака, без округления.
func Truncate(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

func (b *Breakdown) apply(value decimal.Decimal, step Step, units int, factor decimal.Decimal) decimal.Decimal {
	next := value.Mul(factor)
	b.Adjustments = append(b.Adjustments, Adjustment{
		Step:   step,
		Units:  units,
		Factor: factor,
		Value:  next,
	})
	return next
}

func (c *Calculator) factor(rate decimal.Decimal, units int) decimal.Decimal {
	if c.method == MethodCompound {
		return compoundFactor(rate, units)
	}
	return one.Sub(rate.Mul(decimal.NewFromInt(int64(units))))
}

// compoundFactor считает (1-rate)^units во float64; в decimal переводится
// только сам множитель, с округлением до factorDigits значащих цифр.
func compoundFactor(rate decimal.Decimal, units int) decimal.Decimal {
	if units == 0 {
		return one
	}
	base := one.Sub(rate).InexactFloat64()
	f := math.Pow(base, float64(units))

	d, err := decimal.NewFromString(strconv.FormatFloat(f, 'g', factorDigits, 64))
	if err != nil {
		return decimal.NewFromFloat(f)
	}
	return d
}

func ageUnits(months int) int {
	return min(months, maxAgeInMonths)
}

func mileageUnits(miles int) int {
	return min(miles/milesPerUnit, maxKiloMiles)
}

func collisionUnits(collisions int) int {
	return min(collisions, maxCollisions)
}

// ownerFactor возвращает множитель для шага владельцев и признак отложенного бонуса.
func ownerFactor(owners int) (decimal.Decimal, bool) {
	switch {
	case owners == 0:
		return one, true
	case owners <= 2:
		return one, false
	default:
		return ownerDeduction, false
	}
}
