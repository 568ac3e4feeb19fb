package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-blog-admin/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestCapitalize(t *testing.T) {
	require.Equal(t, "Published", utils.Capitalize("published"))
	require.Equal(t, "Ébauche", utils.Capitalize("ébauche"))
	require.Equal(t, "", utils.Capitalize(""))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "March 4, 2024", utils.FormatDate("2024-03-04T10:30:00.000Z"))
	require.Equal(t, "March 4, 2024 10:30 AM", utils.FormatDateTime("2024-03-04T10:30:00Z"))
	require.Equal(t, "not a date", utils.FormatDate("not a date"))
}

func TestPointers(t *testing.T) {
	require.Equal(t, 0, utils.Value[int](nil))
	require.Equal(t, 3, utils.Value(utils.Ptr(3)))
	require.Equal(t, 7, utils.ValueOr[int](nil, 7))
	require.Equal(t, 3, utils.ValueOr(utils.Ptr(3), 7))
}
