// Copyright 2017 The go-ethereum Authors
// (original work)
// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUint64Decimal(t *testing.T) {
	v, ok := ParseUint64("12345")
	require.True(t, ok)
	require.Equal(t, uint64(12345), v)
}

func TestParseUint64Hex(t *testing.T) {
	v, ok := ParseUint64("0xff")
	require.True(t, ok)
	require.Equal(t, uint64(255), v)

	v, ok = ParseUint64("0XFF")
	require.True(t, ok)
	require.Equal(t, uint64(255), v)
}

func TestParseUint64Empty(t *testing.T) {
	v, ok := ParseUint64("")
	require.True(t, ok)
	require.Zero(t, v)
}

func TestParseUint64Invalid(t *testing.T) {
	_, ok := ParseUint64("not-a-number")
	require.False(t, ok)
}

func TestSafeAdd(t *testing.T) {
	sum, overflow := SafeAdd(2, 3)
	require.False(t, overflow)
	require.Equal(t, uint64(5), sum)

	_, overflow = SafeAdd(math.MaxUint64, 1)
	require.True(t, overflow)
}

func TestAbsoluteDifference(t *testing.T) {
	require.Equal(t, uint64(3), AbsoluteDifference(10, 7))
	require.Equal(t, uint64(3), AbsoluteDifference(7, 10))
	require.Zero(t, AbsoluteDifference(5, 5))
}
