package scale

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeight(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr error
	}{
		{name: "plain number", line: "39170", want: 39170},
		{name: "unit suffix", line: "39170 kg", want: 39170},
		{name: "status prefix", line: "ST,GS,+0039170kg", want: 39170},
		{name: "unstable gross marker", line: "US,GS,  1250.5 kg", want: 1250.5},
		{name: "comma decimal", line: "=12,5kg", want: 12.5},
		{name: "zero", line: "ST,NT,+0000000kg", want: 0},
		{name: "negative dropped", line: "ST,GS,-0000120kg", wantErr: ErrSampleOutOfRange},
		{name: "upper bound dropped", line: "200000 kg", wantErr: ErrSampleOutOfRange},
		{name: "below upper bound", line: "199999.9", want: 199999.9},
		{name: "no digits", line: "OL,GS,  ------kg", wantErr: ErrNoWeightInLine},
		{name: "empty", line: "   ", wantErr: ErrNoWeightInLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeight(tt.line)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScanLines(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("\r\n100kg\r\n200kg\r300kg\n\n400"))
	scanner.Split(scanLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"100kg", "200kg", "300kg", "400"}, lines)
}
