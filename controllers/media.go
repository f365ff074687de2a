package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Gantuuu/Elbeg-sub001/media"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// MediaController accepts admin uploads for product and banner images.
type MediaController struct {
	Media media.Storage
	Debug bool
}

func NewMediaController(m media.Storage, debug bool) *MediaController {
	return &MediaController{Media: m, Debug: debug}
}

// Upload handles POST /api/media (multipart, field "file").
func (mc *MediaController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		writeError(w, models.ValidationError("failed to parse multipart form"), mc.Debug)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, models.ValidationError("file is required"), mc.Debug)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := mc.Media.Put(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err, mc.Debug)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}
