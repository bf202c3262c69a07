package collector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
)

func TestResolveCode(t *testing.T) {
	tests := []struct {
		in   string
		want model.SecurityKey
	}{
		{"600519", model.SecurityKey{Exchange: "SH", Code: "600519"}},
		{"000001", model.SecurityKey{Exchange: "SZ", Code: "000001"}},
		{"300750", model.SecurityKey{Exchange: "SZ", Code: "300750"}},
		{"830799", model.SecurityKey{Exchange: "BJ", Code: "830799"}},
		{"430047", model.SecurityKey{Exchange: "BJ", Code: "430047"}},
		{"000001.sz", model.SecurityKey{Exchange: "SZ", Code: "000001"}},
		{" 600519.SH ", model.SecurityKey{Exchange: "SH", Code: "600519"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveCode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCode_Unresolvable(t *testing.T) {
	for _, in := range []string{"", "AAPL", "60051", "6005190", "900901", "600519.HK", "60O519"} {
		_, err := ResolveCode(in)
		assert.True(t, errors.Is(err, model.ErrUnresolvableSecurity), "input %q", in)
	}
}
