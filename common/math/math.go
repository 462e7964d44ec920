// Package math holds float64 helpers for percentage/display math that
// never crosses a persistence boundary (persisted money always uses
// common/decimal).
package math

import "math"

// CalculateFee returns amount*fee/100.
func CalculateFee(amount, fee float64) float64 {
	return amount * (fee / 100)
}

// CalculateAmountWithFee returns amount plus its fee.
func CalculateAmountWithFee(amount, fee float64) float64 {
	return amount + CalculateFee(amount, fee)
}

// CalculatePercentageGainOrLoss returns the percentage change of
// newAmount relative to originalAmount.
func CalculatePercentageGainOrLoss(newAmount, originalAmount float64) float64 {
	return (newAmount - originalAmount) / originalAmount * 100
}

// CalculatePercentageDifference returns the absolute difference
// between x and y as a percentage of their mean.
func CalculatePercentageDifference(x, y float64) float64 {
	return math.Abs(x-y) / ((x + y) / 2) * 100
}

// CalculateNetProfit returns the realized profit of buying amount at
// priceThen and selling at priceNow, net of costs.
func CalculateNetProfit(amount, priceThen, priceNow, costs float64) float64 {
	return (priceNow * amount) - (priceThen * amount) - costs
}

// RoundFloat rounds f to the given number of decimal places.
func RoundFloat(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}
