package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NowakAdmin/ScaleBridge/internal/printing"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

// printJobTimeout bounds a whole print job, all copies included.
const printJobTimeout = 5 * time.Minute

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.With(bodySizeLimit(maxPrintBodySize)).Post("/print", s.handlePrint)

		r.Group(func(r chi.Router) {
			r.Use(bodySizeLimit(maxRequestBodySize))

			r.Route("/printers", func(r chi.Router) {
				r.Get("/", s.handleListPrinters)
				r.Post("/test", s.handleTestPrinter)
			})

			r.Route("/scale", func(r chi.Router) {
				r.Get("/status", s.handleScaleStatus)
				r.Get("/ports", s.handleScalePorts)
				r.Put("/config", s.handleScaleConfig)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"subscribers": s.hub.Count(),
	})
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	var req printing.Request
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid print request: "+err.Error())
		return
	}

	// A started job runs to completion even if the client goes away; the
	// writer's own timeouts still apply to every copy.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), printJobTimeout)
	defer cancel()

	res := s.printing.Dispatch(ctx, req)

	status := http.StatusOK
	if res.ErrorKind == printing.Kind(printing.ErrInvalidRequest) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

type printerTestRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (s *Server) handleTestPrinter(w http.ResponseWriter, r *http.Request) {
	var req printerTestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Host) == "" {
		writeBadRequest(w, "host is required")
		return
	}

	writeJSON(w, http.StatusOK, s.printing.TestConnectivity(r.Context(), req.Host, req.Port))
}

func (s *Server) handleListPrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := s.printing.Printers(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Nie udało się pobrać listy drukarek")
		writeInternalError(w, err.Error())
		return
	}
	if printers == nil {
		printers = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"printers": printers})
}

func (s *Server) handleScaleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scale.StatusEvent(s.scale.Status()))
}

func (s *Server) handleScalePorts(w http.ResponseWriter, _ *http.Request) {
	ports, err := s.scale.Ports()
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	if ports == nil {
		ports = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ports": ports})
}

type scaleConfigRequest struct {
	Path     string `json:"path"`
	BaudRate int    `json:"baudRate"`
}

var errInvalidScaleConfig = errors.New("path is required and baudRate must be positive")

func (s *Server) handleScaleConfig(w http.ResponseWriter, r *http.Request) {
	var req scaleConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request: "+err.Error())
		return
	}

	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" || req.BaudRate <= 0 {
		writeBadRequest(w, errInvalidScaleConfig.Error())
		return
	}

	if err := s.scale.Reconfigure(req.Path, req.BaudRate); err != nil {
		s.logger.Error().Err(err).Msg("Nie udało się zapisać konfiguracji wagi")
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, req)
}
