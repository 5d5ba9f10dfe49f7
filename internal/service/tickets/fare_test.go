package tickets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFare(t *testing.T) {
	testCases := []struct {
		name           string
		passengers     int
		departureCents int64
		returnCents    int64
		expected       int64
	}{
		{name: "one-way single passenger", passengers: 1, departureCents: 10000, expected: 10000},
		{name: "one-way three passengers", passengers: 3, departureCents: 10000, expected: 30000},
		{name: "round-trip single passenger", passengers: 1, departureCents: 10000, returnCents: 10000, expected: 20000},
		{name: "round-trip uneven leg prices", passengers: 2, departureCents: 12500, returnCents: 9900, expected: 44800},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Fare(tc.passengers, tc.departureCents, tc.returnCents))
		})
	}
}
