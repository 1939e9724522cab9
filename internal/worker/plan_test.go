package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	tasks, err := PlanDirectory(dir, "/out", []string{"comic", "anime"}, "")
	require.NoError(t, err)
	require.Len(t, tasks, 6)

	assert.Equal(t, Task{Style: "comic", Input: filepath.Join(dir, "a.png"), Output: filepath.Join("/out", "a-comic.png")}, tasks[0])
	assert.Equal(t, filepath.Join("/out", "a-anime.png"), tasks[1].Output)
	assert.Equal(t, filepath.Join(dir, "b.JPG"), tasks[2].Input)
	assert.Equal(t, filepath.Join("/out", "c-anime.png"), tasks[5].Output)

	tasks, err = PlanDirectory(dir, "/out", []string{"pencil"}, ".jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "a-pencil.jpg"), tasks[0].Output)

	_, err = PlanDirectory(dir, "/out", nil, "png")
	assert.Error(t, err)
	_, err = PlanDirectory(filepath.Join(dir, "missing"), "/out", []string{"oil"}, "png")
	assert.Error(t, err)
}
