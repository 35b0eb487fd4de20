package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoordNotation(t *testing.T) {
	t.Run("skips the letter I per convention", func(t *testing.T) {
		c := CoordXY(8, 3, 9)
		require.Equal(t, "J4", FormatCoord(c, 9))
	})

	t.Run("sentinels format by name", func(t *testing.T) {
		require.Equal(t, "pass", FormatCoord(Pass, 9))
		require.Equal(t, "resign", FormatCoord(Resign, 9))
	})

	t.Run("parsing inverts formatting", func(t *testing.T) {
		c := CoordXY(3, 5, 9)

		got, err := ParseCoord(FormatCoord(c, 9), 9)

		require.NoError(t, err)
		require.Equal(t, c, got)
	})

	t.Run("parsing accepts lowercase and pass", func(t *testing.T) {
		got, err := ParseCoord("d4", 9)
		require.NoError(t, err)
		require.Equal(t, CoordXY(3, 3, 9), got)

		got, err = ParseCoord("pass", 9)
		require.NoError(t, err)
		require.Equal(t, Pass, got)
	})

	t.Run("rejects coordinates off the board", func(t *testing.T) {
		_, err := ParseCoord("K10", 9)
		require.Error(t, err)

		_, err = ParseCoord("A0", 9)
		require.Error(t, err)
	})
}
