package advice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestProfileValidate(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{name: "valid", profile: Profile{Location: "Delhi", Age: 34}},
		{name: "missing location", profile: Profile{Age: 34}, wantErr: "location"},
		{name: "age out of range", profile: Profile{Location: "Delhi", Age: 130}, wantErr: "between 1 and 120"},
		{name: "no inputs", profile: Profile{Location: "Delhi"}, wantErr: "at least one input"},
		{name: "none combined", profile: Profile{Location: "Delhi", Conditions: []string{"none", "asthma"}}, wantErr: `"none"`},
		{name: "long question", profile: Profile{Location: "Delhi", Question: strings.Repeat("word ", 31)}, wantErr: "30 words"},
		{name: "question only", profile: Profile{Location: "Delhi", Question: strings.Repeat("word ", 30)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Normalize().Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestProfileNormalize(t *testing.T) {
	p := Profile{
		Location:   "  Delhi ",
		Age:        40,
		AgeGroup:   "adult",
		Conditions: []string{"Asthma", "asthma ", ""},
		Question:   "  can   I run? ",
	}.Normalize()
	require.Equal(t, "Delhi", p.Location)
	require.Empty(t, p.AgeGroup)
	require.Equal(t, []string{"asthma"}, p.Conditions)
	require.Equal(t, "can I run?", p.Question)
}
