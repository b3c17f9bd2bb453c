package explorer

import (
	"testing"
	"time"

	"bitwise74/bucket-panel/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func objects() []storage.Object {
	return []storage.Object{
		{Key: "readme.txt", Size: 10, LastModified: t0, Owner: "Ana"},
		{Key: "2024/", LastModified: t0.Add(time.Minute), Owner: storage.DefaultUploader},
		{Key: "2024/Reports/", LastModified: t0.Add(2 * time.Minute), Owner: storage.DefaultUploader},
		{Key: "2024/clip.mp4", Size: 300, LastModified: t0.Add(3 * time.Minute), Owner: "Bob"},
		{Key: "2024/photos/a.png", Size: 20, LastModified: t0.Add(4 * time.Minute), Owner: "Ana"},
		{Key: "2024/photos/b.png", Size: 30, LastModified: t0.Add(5 * time.Minute), Owner: "Ana"},
		{Key: "archive/old/x.zip", Size: 40, LastModified: t0.Add(6 * time.Minute), Owner: "Bob"},
	}
}

func TestNewListing(t *testing.T) {
	loc := storage.Location{Bucket: "media", Region: "us-east-1", CDNHost: "cdn.example.com"}
	l := NewListing(objects(), loc, t0)

	require.Len(t, l.Files, 7)
	assert.Equal(t, "archive/old/x.zip", l.Files[0].Key)
	assert.Equal(t, "readme.txt", l.Files[6].Key)

	assert.Equal(t, 5, l.Stats.TotalFiles)
	assert.Equal(t, int64(400), l.Stats.TotalSize)
	assert.Equal(t, "media", l.Stats.Bucket)

	require.Len(t, l.RecentUploads, 5)
	assert.Equal(t, "x.zip", l.RecentUploads[0].FileName)
	assert.Equal(t, "readme.txt", l.RecentUploads[4].ID)

	reports := l.Files[4]
	assert.True(t, reports.IsFolderPlaceholder)
	assert.Equal(t, "Reports", reports.FileName)
	assert.Equal(t, "https://cdn.example.com/2024/Reports/", reports.CDNURL)
}

func TestBuildRoot(t *testing.T) {
	files := NewListing(objects(), storage.Location{Bucket: "b", Region: "r"}, t0).Files
	v := Build(files, "", "")

	// "2024" counts its placeholder "2024/Reports/" and three nested files
	assert.Equal(t, []Folder{{Name: "2024", Count: 4}, {Name: "archive", Count: 1}}, v.Folders)
	require.Len(t, v.Files, 1)
	assert.Equal(t, "readme.txt", v.Files[0].Key)
}

func TestBuildPrefix(t *testing.T) {
	files := NewListing(objects(), storage.Location{Bucket: "b", Region: "r"}, t0).Files
	v := Build(files, "/2024/", "")

	assert.Equal(t, "2024", v.Prefix)
	assert.Equal(t, []Folder{{Name: "photos", Count: 2}, {Name: "Reports", Count: 0}}, v.Folders)
	require.Len(t, v.Files, 1)
	assert.Equal(t, "clip.mp4", v.Files[0].FileName)

	empty := Build(files, "2024/Reports", "")
	assert.Empty(t, empty.Folders)
	assert.Empty(t, empty.Files)
}

func TestBuildSearch(t *testing.T) {
	files := NewListing(objects(), storage.Location{Bucket: "b", Region: "r"}, t0).Files

	v := Build(files, "2024", "PHO")
	assert.Equal(t, []Folder{{Name: "photos", Count: 2}}, v.Folders)
	assert.Empty(t, v.Files)

	v = Build(files, "2024", "bob")
	assert.Empty(t, v.Folders)
	require.Len(t, v.Files, 1)
	assert.Equal(t, "2024/clip.mp4", v.Files[0].Key)
}

func TestTaken(t *testing.T) {
	files := NewListing(objects(), storage.Location{Bucket: "b", Region: "r"}, t0).Files
	v := Build(files, "2024", "")

	folder, file := v.Taken("REPORTS")
	assert.True(t, folder)
	assert.False(t, file)

	folder, file = v.Taken("clip.mp4")
	assert.False(t, folder)
	assert.True(t, file)

	folder, file = v.Taken("Clip.mp4")
	assert.False(t, folder)
	assert.False(t, file)

	folder, file = v.Taken("new")
	assert.False(t, folder)
	assert.False(t, file)
}
