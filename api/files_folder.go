package api

import (
	"net/http"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/pkg/explorer"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/validators"

	"github.com/gin-gonic/gin"
)

type folderBody struct {
	FolderName string `json:"folderName"`
	Prefix     string `json:"prefix"`
}

// FilesCreateFolder writes an empty placeholder so the folder shows up
// before anything is uploaded into it
func (a *API) FilesCreateFolder(c *gin.Context) {
	var data folderBody
	if !bindJSON(c, &data) {
		return
	}

	name, err := validators.FolderName(data.FolderName)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	bucket, settings, ok := a.bucket(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	prefix := validators.NormalizePrefix(data.Prefix)
	key := validators.FolderKey(prefix, name)

	exists, err := bucket.Exists(ctx, key)
	if err != nil {
		fail(c, err, "Failed to check folder")
		return
	}

	if exists {
		abort(c, http.StatusConflict, "Folder already exists")
		return
	}

	dir := ""
	if prefix != "" {
		dir = prefix + "/"
	}

	objects, err := bucket.List(ctx, dir, a.Config.Storage.ListMaxKeys)
	if err != nil {
		fail(c, err, "Failed to list folder")
		return
	}

	files := make([]explorer.File, 0, len(objects))
	for _, o := range objects {
		files = append(files, explorer.NewFile(o, location(settings)))
	}

	folder, file := explorer.Build(files, prefix, "").Taken(name)
	if folder {
		abort(c, http.StatusConflict, "Folder already exists")
		return
	}

	if file {
		abort(c, http.StatusConflict, "A file with this name already exists at this level")
		return
	}

	if err := bucket.PutPlaceholder(ctx, key); err != nil {
		fail(c, err, "Failed to create folder")
		return
	}

	a.Activity.Record(actor(middleware.GetSession(c)), model.ActionFolderCreated, key, "")

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
	})
}
