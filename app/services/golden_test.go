package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/requests"
)

// GoldenTest một địa chỉ mẫu và kết quả mong đợi trên gazetteer sample
type GoldenTest struct {
	Raw    string `json:"raw"`
	Expect struct {
		Status           string   `json:"status"`
		CanonicalText    string   `json:"canonical_text"`
		AdminPath        []string `json:"admin_path,omitempty"`
		ResidualContains []string `json:"residual_contains,omitempty"`
	} `json:"expect"`
}

// TestGoldenTests chạy tất cả file trong testdata/golden
func TestGoldenTests(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	as, _ := newTestAddressService(t, nil, nil)
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			var golden GoldenTest
			require.NoError(t, json.Unmarshal(data, &golden))

			result, _, err := as.ParseAddress(context.Background(), golden.Raw, requests.ParseOptions{})
			require.NoError(t, err)

			assert.Equal(t, golden.Expect.Status, result.Status)
			assert.Equal(t, golden.Expect.CanonicalText, result.CanonicalText)
			if golden.Expect.AdminPath != nil {
				assert.Equal(t, golden.Expect.AdminPath, pathIDs(result))
			}
			for _, part := range golden.Expect.ResidualContains {
				assert.Contains(t, result.Residual, part)
			}
		})
	}
}
