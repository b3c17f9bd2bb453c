// Package explorer turns a flat list of bucket objects into the listing and
// folder views shown by the panel. Folders only exist in these views, nothing
// about them is persisted besides the optional placeholder objects.
package explorer

import (
	"path"
	"slices"
	"strings"
	"time"

	"bitwise74/bucket-panel/internal/storage"
)

const recentCount = 5

type File struct {
	Key                 string    `json:"key"`
	FileName            string    `json:"fileName"`
	Size                int64     `json:"size"`
	LastModified        time.Time `json:"lastModified"`
	UploadedBy          string    `json:"uploadedBy"`
	URL                 string    `json:"url"`
	CDNURL              string    `json:"cdnUrl"`
	IsFolderPlaceholder bool      `json:"isFolderPlaceholder"`
}

type Stats struct {
	TotalFiles  int       `json:"totalFiles"`
	TotalSize   int64     `json:"totalSize"`
	LastUpdated time.Time `json:"lastUpdated"`
	Bucket      string    `json:"bucket"`
	CDNHost     string    `json:"cdnHost"`
}

type RecentUpload struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy"`
	Size       int64     `json:"size"`
}

type Listing struct {
	Files         []File         `json:"files"`
	Stats         Stats          `json:"stats"`
	RecentUploads []RecentUpload `json:"recentUploads"`
}

type Folder struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type View struct {
	Prefix  string   `json:"prefix"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// NewFile maps a bucket object to its listing entry
func NewFile(o storage.Object, loc storage.Location) File {
	name := path.Base(strings.TrimSuffix(o.Key, "/"))
	if name == "." || name == "/" {
		name = o.Key
	}

	return File{
		Key:                 o.Key,
		FileName:            name,
		Size:                o.Size,
		LastModified:        o.LastModified,
		UploadedBy:          o.Owner,
		URL:                 loc.PublicURL(o.Key),
		CDNURL:              loc.CDNURL(o.Key),
		IsFolderPlaceholder: o.IsPlaceholder(),
	}
}

// NewListing sorts the objects newest first and computes the stats. Folder
// placeholders are listed but not counted.
func NewListing(objects []storage.Object, loc storage.Location, now time.Time) Listing {
	files := make([]File, 0, len(objects))
	for _, o := range objects {
		files = append(files, NewFile(o, loc))
	}

	slices.SortStableFunc(files, func(a, b File) int {
		return b.LastModified.Compare(a.LastModified)
	})

	l := Listing{
		Files: files,
		Stats: Stats{
			LastUpdated: now,
			Bucket:      loc.Bucket,
			CDNHost:     loc.CDNHost,
		},
		RecentUploads: []RecentUpload{},
	}

	for _, f := range files {
		if f.IsFolderPlaceholder {
			continue
		}

		l.Stats.TotalFiles++
		l.Stats.TotalSize += f.Size

		if len(l.RecentUploads) < recentCount {
			l.RecentUploads = append(l.RecentUploads, RecentUpload{
				ID:         f.Key,
				FileName:   f.FileName,
				UploadedAt: f.LastModified,
				UploadedBy: f.UploadedBy,
				Size:       f.Size,
			})
		}
	}

	return l
}

func segments(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool { return r == '/' })
}

// Build returns the folders and files directly under prefix, filtered by
// search. Files keep their incoming order, folders are sorted by name.
//
// A key deeper than prefix adds one to the count of the folder named by its
// next segment. A placeholder exactly one level deeper only makes sure the
// folder shows up.
func Build(files []File, prefix, search string) View {
	prefixSegs := segments(prefix)
	counts := map[string]int{}

	for _, f := range files {
		segs := segments(f.Key)
		if len(segs) <= len(prefixSegs) || !slices.Equal(segs[:len(prefixSegs)], prefixSegs) {
			continue
		}

		rel := segs[len(prefixSegs):]
		name := rel[0]

		if len(rel) == 1 {
			if f.IsFolderPlaceholder {
				if _, ok := counts[name]; !ok {
					counts[name] = 0
				}
			}
			continue
		}

		counts[name]++
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	joined := strings.Join(prefixSegs, "/")

	v := View{
		Prefix:  joined,
		Folders: []Folder{},
		Files:   []File{},
	}

	for name, count := range counts {
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}

		v.Folders = append(v.Folders, Folder{Name: name, Count: count})
	}

	slices.SortFunc(v.Folders, func(a, b Folder) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	dir := ""
	if joined != "" {
		dir = joined + "/"
	}

	for _, f := range files {
		if f.IsFolderPlaceholder || !strings.HasPrefix(f.Key, dir) {
			continue
		}

		rest := f.Key[len(dir):]
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}

		if needle != "" {
			haystack := strings.ToLower(f.FileName + " " + f.Key + " " + f.UploadedBy)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}

		v.Files = append(v.Files, f)
	}

	return v
}

// Taken reports whether name is already used in the view, either by a
// folder with the same name in any case or by a file with exactly that name
func (v View) Taken(name string) (folder, file bool) {
	folder = slices.ContainsFunc(v.Folders, func(f Folder) bool {
		return strings.EqualFold(f.Name, name)
	})

	file = slices.ContainsFunc(v.Files, func(f File) bool {
		return f.FileName == name
	})

	return folder, file
}
