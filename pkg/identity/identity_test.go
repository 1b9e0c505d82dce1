package identity_test

import (
	"testing"

	"github.com/sfmovies/locations-service/pkg/identity"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in, out string
	}{
		{"Hall of Justice (850 Bryant Street)", "Hall of Justice (850 Bryant Street)"},
		{"Caf\u00e9 Trieste", "Cafe Trieste"},
		{"Cafe\u0301 Trieste", "Cafe Trieste"},
		{"Ｆｉｌｌｍｏｒｅ", "Fillmore"},
		{"Coit Tower ✓", "Coit Tower "},
		{"", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.out, identity.Normalize(tc.in))
		})
	}
}

func TestComputeID(t *testing.T) {
	id := identity.ComputeID("The Dead Pool", "1988", "Hall of Justice (850 Bryant Street)")
	require.Len(t, id, 32)

	t.Run("deterministic", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			require.Equal(t, id, identity.ComputeID("The Dead Pool", "1988", "Hall of Justice (850 Bryant Street)"))
		}
	})

	t.Run("encoding independent", func(t *testing.T) {
		composed := identity.ComputeID("Caf\u00e9 Society", "2016", "Caf\u00e9 Trieste")
		decomposed := identity.ComputeID("Cafe\u0301 Society", "2016", "Cafe\u0301 Trieste")
		require.Equal(t, composed, decomposed)
	})

	t.Run("each component matters", func(t *testing.T) {
		require.NotEqual(t, id, identity.ComputeID("The Dead Pool", "1989", "Hall of Justice (850 Bryant Street)"))
		require.NotEqual(t, id, identity.ComputeID("The Dead Poo", "1988", "Hall of Justice (850 Bryant Street)"))
		require.NotEqual(t, id, identity.ComputeID("The Dead Pool", "1988", "Coit Tower"))
	})
}
