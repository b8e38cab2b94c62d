package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/model"
)

const maxUploadBytes = 32 << 20

// --- Vehicles ---

func (s *Server) handleAddFromVIN(w http.ResponseWriter, r *http.Request) {
	var in inventory.VehicleInput
	if !decodeBody(w, r, &in) {
		return
	}
	v, err := s.svc.AddFromVIN(r.Context(), dealershipID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	status := model.VehicleStatus(r.URL.Query().Get("status"))
	out, err := s.svc.ListVehicles(r.Context(), dealershipID(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	status := model.VehicleStatus(r.URL.Query().Get("status"))
	out, err := s.svc.Insights(r.Context(), dealershipID(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetVehicle(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var u inventory.VehicleUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	v, err := s.svc.UpdateVehicle(r.Context(), dealershipID(r), chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	sig, err := s.svc.GetSignals(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

func (s *Server) handleUpdateSignals(w http.ResponseWriter, r *http.Request) {
	var u inventory.SignalsUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	sig, err := s.svc.UpdateSignals(r.Context(), dealershipID(r), chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// --- Comps ---

func (s *Server) handleRefreshComps(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.RefreshComps(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddManualComp(w http.ResponseWriter, r *http.Request) {
	var in inventory.CompInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.svc.AddManualComp(r.Context(), dealershipID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUploadComps(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	res, err := s.svc.UploadComps(r.Context(), dealershipID(r), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListComps(w http.ResponseWriter, r *http.Request) {
	source := model.CompSource(r.URL.Query().Get("source"))
	out, err := s.svc.ListComps(r.Context(), dealershipID(r), chi.URLParam(r, "id"), source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.CompSummary(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- Analysis ---

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Analyze(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	curve, err := s.svc.Curve(r.Context(), dealershipID(r), chi.URLParam(r, "id"), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, curve)
}

func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.AnalyzeAll(r.Context(), dealershipID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefreshAllComps(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.RefreshAllComps(r.Context(), dealershipID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Alarms ---

func (s *Server) handleRunAlarm(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.RunAlarm(r.Context(), dealershipID(r), inventory.AlarmManual)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLatestAlarm(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.LatestAlarm(r.Context(), dealershipID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAlarmHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	out, err := s.svc.AlarmHistory(r.Context(), dealershipID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlarmSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.AlarmSettings(r.Context(), dealershipID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateAlarmSettings(w http.ResponseWriter, r *http.Request) {
	var u inventory.AlarmSettingsUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	settings, err := s.svc.UpdateAlarmSettings(r.Context(), dealershipID(r), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// --- Waterfall ---

func (s *Server) handleGetWaterfallSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.WaterfallSettings(r.Context(), dealershipID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateWaterfallSettings(w http.ResponseWriter, r *http.Request) {
	var u inventory.WaterfallSettingsUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	settings, err := s.svc.UpdateWaterfallSettings(r.Context(), dealershipID(r), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePlanWaterfall(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.PlanWaterfall(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleApplyStep(w http.ResponseWriter, r *http.Request) {
	step, ok := queryInt(w, r, "step")
	if !ok {
		return
	}
	if !r.URL.Query().Has("step") {
		step = 1
	}
	v, err := s.svc.ApplyStep(r.Context(), dealershipID(r), chi.URLParam(r, "id"), step)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- Price events ---

func (s *Server) handleVehiclePriceEvents(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.VehiclePriceEvents(r.Context(), dealershipID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePriceEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	out, err := s.svc.PriceEvents(r.Context(), dealershipID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
