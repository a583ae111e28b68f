package transfer

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartReader(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		partSize  int32
		wantParts int32
		lastSize  int
	}{
		{"exact multiple", 4096, 1024, 4, 1024},
		{"trailing remainder", 2500, 1024, 3, 452},
		{"smaller than a part", 10, 1024, 1, 10},
		{"empty", 0, 1024, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			content := pattern(tt.size)
			writeFile(t, fs, "f.bin", content)

			r, err := NewPartReader(fs, "f.bin", tt.partSize)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, tt.wantParts, r.TotalParts())
			assert.Equal(t, int64(tt.size), r.Size())

			var joined []byte
			for {
				part, err := r.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				assert.Equal(t, int64(part.Index)*int64(tt.partSize), part.Offset)
				assert.Equal(t, part.Index == tt.wantParts-1, part.IsLast)
				if part.IsLast {
					assert.Len(t, part.Data, tt.lastSize)
				}
				joined = append(joined, part.Data...)
			}
			assert.Equal(t, content, joined)
			assert.Len(t, joined, tt.size)
		})
	}
}

func TestPartReader_RandomAccess(t *testing.T) {
	fs := memfs.New()
	content := pattern(3000)
	writeFile(t, fs, "f.bin", content)

	r, err := NewPartReader(fs, "f.bin", 1024)
	require.NoError(t, err)
	defer r.Close()

	part, err := r.Part(1)
	require.NoError(t, err)
	assert.Equal(t, content[1024:2048], part.Data)

	_, err = r.Part(3)
	assert.Error(t, err)
	_, err = r.Part(-1)
	assert.Error(t, err)
}

func TestNewPartReader_Errors(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("dir", 0o755))

	_, err := NewPartReader(fs, "dir", 1024)
	assert.ErrorIs(t, err, ErrIsDir)

	_, err = NewPartReader(fs, "missing", 1024)
	assert.Error(t, err)

	writeFile(t, fs, "f", []byte("x"))
	_, err = NewPartReader(fs, "f", 0)
	assert.Error(t, err)
}
