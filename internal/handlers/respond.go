package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/badabuilder/marketplace/internal/apperr"
	"github.com/badabuilder/marketplace/internal/auth"
	"github.com/badabuilder/marketplace/internal/model"
	"github.com/badabuilder/marketplace/internal/storage"
)

const (
	maxJSONBody  = 1 << 20
	maxFormBody  = 64 << 20
	maxImageSize = 10 << 20
)

// utilities

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warnf("encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"error": msg})
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindPaymentVerificationFailed:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized, apperr.KindSubscriptionRequired:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a service error to a response. Internal details are logged, not returned.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	kind := apperr.KindOf(err)
	code := statusFor(kind)
	entry := h.log.WithFields(logrus.Fields{
		"req_id": middleware.GetReqID(r.Context()),
		"path":   r.URL.Path,
		"kind":   kind.String(),
	})
	switch {
	case code == http.StatusInternalServerError:
		entry.Errorf("%s: %v", fallback, err)
		h.writeError(w, code, fallback)
	case code == http.StatusBadGateway:
		entry.Warnf("%s: %v", fallback, err)
		h.writeError(w, code, apperr.Message(err))
	default:
		h.writeError(w, code, apperr.Message(err))
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return id, ok
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) (model.Page, bool) {
	var p model.Page
	q := r.URL.Query()
	for _, f := range []struct {
		key string
		dst *int
	}{{"limit", &p.Limit}, {"offset", &p.Offset}} {
		s := q.Get(f.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid "+f.key)
			return p, false
		}
		*f.dst = n
	}
	return p, true
}

// decodeJSON reads and validates a JSON body into v.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		h.log.Warnf("invalid body on %s: %v", r.URL.Path, err)
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return h.validate(w, v)
}

func (h *Handler) validate(w http.ResponseWriter, v interface{}) bool {
	if err := h.val.Struct(v); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) decodeWithImages(w http.ResponseWriter, r *http.Request, v interface{}) ([]storage.Image, bool) {
	return h.decodeWithFiles(w, r, v, "images", storage.MaxImages)
}

// decodeWithFiles accepts either a JSON body or a multipart form whose
// "payload" field holds the JSON and whose files under field are returned in order.
func (h *Handler) decodeWithFiles(w http.ResponseWriter, r *http.Request, v interface{}, field string, limit int) ([]storage.Image, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, h.decodeJSON(w, r, v)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	if payload := r.FormValue("payload"); payload != "" {
		if err := json.Unmarshal([]byte(payload), v); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload")
			return nil, false
		}
	}
	if !h.validate(w, v) {
		return nil, false
	}

	files := r.MultipartForm.File[field]
	if len(files) > limit {
		h.writeError(w, http.StatusBadRequest, "too many "+field+" files")
		return nil, false
	}
	images := make([]storage.Image, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		images = append(images, img)
	}
	return images, true
}

func readImage(fh *multipart.FileHeader) (storage.Image, error) {
	name := fh.Filename
	f, err := fh.Open()
	if err != nil {
		return storage.Image{}, errors.New("cannot read " + name)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return storage.Image{}, errors.New("cannot read " + name)
	}
	if len(data) > maxImageSize {
		return storage.Image{}, errors.New(name + " is larger than 10MB")
	}
	return storage.Image{Name: name, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
