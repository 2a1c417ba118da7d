package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slots(urls ...string) [MaxImageSlots]string {
	var s [MaxImageSlots]string
	copy(s[:], urls)
	return s
}

func TestReconcileImages(t *testing.T) {
	old := []string{"old0", "old1", "old2"}

	tests := []struct {
		name string
		in   ImageUpdate
		want []string
	}{
		{
			name: "single upload replaces its slot",
			in:   ImageUpdate{Previous: old, Uploads: slots("", "new1")},
			want: []string{"old0", "new1", "old2"},
		},
		{
			name: "no uploads keeps stored images",
			in:   ImageUpdate{Previous: old},
			want: old,
		},
		{
			name: "all slots uploaded",
			in:   ImageUpdate{Previous: old, Uploads: slots("n0", "n1", "n2")},
			want: []string{"n0", "n1", "n2"},
		},
		{
			name: "explicit keep list shrinks the product",
			in:   ImageUpdate{Previous: old, Existing: []string{"old0"}},
			want: []string{"old0"},
		},
		{
			name: "upload beyond keep list fills the slot",
			in:   ImageUpdate{Previous: old, Existing: []string{"old0"}, Uploads: slots("", "", "n2")},
			want: []string{"old0", "n2"},
		},
		{
			name: "displaced image is appended while room remains",
			in:   ImageUpdate{Previous: old, Existing: []string{"old0", "old1"}, Uploads: slots("n0")},
			want: []string{"n0", "old1", "old0"},
		},
		{
			name: "uploads win over a reordering keep list",
			in:   ImageUpdate{Previous: old, Existing: []string{"old2", "old1", "old0"}, Uploads: slots("n0")},
			want: []string{"n0", "old1", "old0"},
		},
		{
			name: "explicit empty list falls back to stored images",
			in:   ImageUpdate{Previous: old, Existing: []string{}},
			want: old,
		},
		{
			name: "product without images gains uploads",
			in:   ImageUpdate{Uploads: slots("", "n1")},
			want: []string{"n1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReconcileImages(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcileImagesScenarioD(t *testing.T) {
	got, err := ReconcileImages(ImageUpdate{
		Previous: []string{"old0", "old1", "old2"},
		Uploads:  slots("", "new1", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"old0", "new1", "old2"}, got)
}

func TestReconcileImagesRequiresOneImage(t *testing.T) {
	_, err := ReconcileImages(ImageUpdate{Existing: []string{}})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "images", ve.Field)
}

func TestReconcileImagesIsIdempotentWithoutUploads(t *testing.T) {
	for _, existing := range [][]string{
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
	} {
		got, err := ReconcileImages(ImageUpdate{Previous: []string{"x", "y", "z"}, Existing: existing})
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	}
}

func TestReconcileImagesNeverExceedsSlots(t *testing.T) {
	pool := []string{"a", "b", "c"}
	for mask := 0; mask < 1<<MaxImageSlots; mask++ {
		var up [MaxImageSlots]string
		for i := 0; i < MaxImageSlots; i++ {
			if mask&(1<<i) != 0 {
				up[i] = fmt.Sprintf("new%d", i)
			}
		}
		for n := 0; n <= len(pool); n++ {
			got, err := ReconcileImages(ImageUpdate{Previous: pool, Existing: pool[:n], Uploads: up})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), MaxImageSlots)
			assert.NotEmpty(t, got)

			for i := 0; i < MaxImageSlots; i++ {
				if up[i] != "" {
					assert.Contains(t, got, up[i])
				}
			}
		}
	}
}

func TestRemovedImages(t *testing.T) {
	assert.Equal(t, []string{"old1"}, RemovedImages([]string{"old0", "old1", "old2"}, []string{"old0", "new1", "old2"}))
	assert.Nil(t, RemovedImages([]string{"a"}, []string{"a"}))
	assert.Nil(t, RemovedImages(nil, []string{"a"}))
}

func TestValidateCreateImages(t *testing.T) {
	assert.NoError(t, ValidateCreateImages(3))
	for _, n := range []int{0, 1, 2, 4} {
		var ve *ValidationError
		assert.True(t, errors.As(ValidateCreateImages(n), &ve), n)
	}
}
