package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dmchat/internal/app/storage"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

const (
	// uploadBodyLimit leaves room for multipart framing around a maximal file.
	uploadBodyLimit = storage.MaxUploadSize + 1<<20

	fileCacheControl = "max-age=31536000"
)

// HandleUpload stores the multipart "file" part under the category named by "type".
func HandleUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		if customErr := req.SetupMultipart(w, r, uploadBodyLimit); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		result, err := deps.Files.Upload(r.Context(), storage.UploadInput{
			Category:     r.FormValue("type"),
			UserID:       identity.ID,
			Username:     identity.Username,
			OriginalName: header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Size:         header.Size,
			Body:         file,
		})
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, result)
	}
}

// HandleDownload serves /api/files/{folder}/{filename}.
func HandleDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		obj, err := deps.Files.Download(r.Context(), chi.URLParam(r, "folder"), filename)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		serveObject(w, r, filename, obj)
	}
}

// HandleLegacyDownload serves /api/files/{filename} by searching every folder.
func HandleLegacyDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")

		obj, err := deps.Files.Find(r.Context(), filename)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		serveObject(w, r, filename, obj)
	}
}

func serveObject(w http.ResponseWriter, r *http.Request, filename string, obj *storage.Object) {
	defer obj.Body.Close()

	h := w.Header()
	h.Set("Content-Type", obj.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	h.Set("Cache-Control", fileCacheControl)
	h.Set("X-Content-Type-Options", "nosniff")

	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, filename, obj.ModTime, rs)
		return
	}

	if obj.Size > 0 {
		h.Set("Content-Length", fmt.Sprint(obj.Size))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		logx.Warn("File download interrupted", "filename", filename, "error", err)
	}
}

