package tickets

// Fare returns the trip total in cents: each leg's price times the passenger
// count. returnCents is zero for one-way trips.
func Fare(passengerCount int, departureCents, returnCents int64) int64 {
	return (departureCents + returnCents) * int64(passengerCount)
}
