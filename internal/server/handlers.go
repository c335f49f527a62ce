package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/buildinfo"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/pipeline"
)

type (
	CreateInvitationResponse struct {
		ID        string            `json:"id"`
		Token     string            `json:"token"`
		ExpiresAt time.Time         `json:"expiresAt"`
		ExpiresIn int64             `json:"expiresIn"`
		Downloads map[string]string `json:"downloads"`
	}

	HealthResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.gen.Catalog().PublicList()
	if list == nil {
		list = []catalog.PublicTemplate{}
	}
	render.JSON(w, r, list)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.gen.Catalog().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, t.Public())
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req pipeline.Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "request body must be a JSON object"))
		return
	}

	res, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		if statusFor(errs.GetCode(err)) >= http.StatusInternalServerError {
			s.logger.Error("generate failed", "template", req.TemplateID, "err", err)
		}
		writeError(w, r, err)
		return
	}

	downloads := make(map[string]string, len(res.Downloads))
	for _, d := range res.Downloads {
		downloads[string(d.Format)] = s.baseURL + pipeline.DownloadPath(res.Token, d.Format)
	}
	expiresIn := int64(res.ExpiresAt.Sub(s.gen.Delivery().Now()).Seconds())

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateInvitationResponse{
		ID:        res.ID,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		ExpiresIn: expiresIn,
		Downloads: downloads,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	format := chi.URLParam(r, "format")

	art, err := s.gen.Delivery().Redeem(r.Context(), token, format)
	if err != nil {
		if statusFor(errs.GetCode(err)) >= http.StatusInternalServerError {
			s.logger.Error("redeem failed", "format", format, "err", err)
		}
		writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", art.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(art.Data)))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		s.logger.Warn("download interrupted", "format", format, "err", err)
	}
}
