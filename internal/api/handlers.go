package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/AstroImages/internal/service"
)

func (s *Server) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	var req service.CreateImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.images.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, summary, "Image created successfully")
}

func (s *Server) handleListUserImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.images.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, images, "Images retrieved successfully")
}

// handleViewImage streams the stored bytes. Any failure before the headers go
// out is reported as a plain 404; copy failures afterwards are only logged.
func (s *Server) handleViewImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageId")
	obj, err := s.images.Stream(r.Context(), imageID, r.Header.Get("Range"))
	if err != nil {
		s.log.Warn("image view failed", "image_id", imageID, "err", err)
		s.writeJSON(w, http.StatusNotFound, map[string]any{
			"success":   false,
			"message":   "Image not found",
			"timestamp": timestamp(),
		})
		return
	}
	defer obj.Body.Close()

	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Cache-Control", "public, max-age=31536000")
	h.Set("Accept-Ranges", "bytes")
	if obj.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}

	status := http.StatusOK
	if obj.ContentRange != "" {
		h.Set("Content-Range", obj.ContentRange)
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log.Warn("image stream interrupted", "image_id", imageID, "err", err)
	}
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var in service.UpsertUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.users.Upsert(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if res.Created {
		s.writeSuccess(w, http.StatusCreated, service.NewUserProfile(res.User), "User created successfully")
		return
	}
	s.writeSuccess(w, http.StatusOK, service.NewUserProfile(res.User), "User updated successfully")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, service.NewUserProfile(user), "User retrieved successfully")
}
