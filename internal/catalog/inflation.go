package catalog

import "math"

// inflationRate is the flat annual rate used to move prices between dollar
// years when no price index table is available.
const inflationRate = 0.02

// AdjustPrice converts a price from the base dollar year to the target
// dollar year by compounding a flat annual inflation rate. Moving to an
// earlier year deflates the price symmetrically.
func AdjustPrice(price float64, baseYear, targetYear int) float64 {
	if baseYear == targetYear {
		return price
	}
	return price * math.Pow(1+inflationRate, float64(targetYear-baseYear))
}
