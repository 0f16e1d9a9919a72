package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ocstat/internal/models"
	"ocstat/internal/reports"
	"ocstat/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5"
)

const paramWindow = "window"

// reportHandler serves the open window of a kind as it is right now. It only
// reads snapshots, so it never blocks a running rollover for longer than a copy.
type reportHandler struct {
	reader    reports.SnapshotReader
	generator reports.Generator
}

func NewReportHandler(reader reports.SnapshotReader, generator reports.Generator) AppHttpHandler {
	return &reportHandler{reader: reader, generator: generator}
}

// Handle processes GET /reports/{window} requests.
func (h *reportHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	kind, err := windowParam(r)
	if err != nil {
		return err
	}

	report := h.generator.Build(h.reader, kind)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
	return nil
}

type reportChartHandler struct {
	reader    reports.SnapshotReader
	generator reports.Generator
	renderer  reports.ChartRenderer
}

func NewReportChartHandler(reader reports.SnapshotReader, generator reports.Generator, renderer reports.ChartRenderer) AppHttpHandler {
	return &reportChartHandler{reader: reader, generator: generator, renderer: renderer}
}

// Handle processes GET /reports/{window}/chart requests.
func (h *reportChartHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	kind, err := windowParam(r)
	if err != nil {
		return err
	}

	report := h.generator.Build(h.reader, kind)
	image, err := h.renderer.Render(r.Context(), report)
	if err != nil {
		if _, ok := svcerrors.AsServiceError(err); ok {
			return err
		}
		return errInternalChartFailed(err)
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Data)))
	w.Header().Set("Content-Disposition", "inline; filename=\""+image.Filename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Data)
	return nil
}

func windowParam(r *http.Request) (models.WindowKind, error) {
	raw := chi.URLParam(r, paramWindow)
	kind, err := models.NewWindowKindFromString(raw)
	if err != nil {
		return "", errInvalidWindow(raw, err)
	}
	return kind, nil
}
