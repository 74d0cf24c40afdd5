package control

import (
	"net/http"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/controlloop"
	"github.com/junctionlab/signalcore/decision"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.loop.Enqueue(controlloop.Command{Kind: controlloop.CommandStart})
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.loop.Enqueue(controlloop.Command{Kind: controlloop.CommandStop})
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.RemoteAddr
	ch := s.loop.Subscribe(id)
	defer s.loop.Unsubscribe(id)

	select {
	case snap := <-ch:
		writeJSON(w, http.StatusOK, snap)
	case <-r.Context().Done():
	}
}

// handleMode serves get_mode (any method but POST) and set_mode (POST),
// per spec: get_mode returns {mode, manual_active, manual_command?,
// remaining_seconds}; set_mode is rejected while emergency preemption is
// holding green.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleSetMode(w, r)
		return
	}

	mode := s.loop.Mode()
	manualActive := mode == decision.ModeManual
	resp := map[string]any{
		"mode":              mode.String(),
		"manual_active":     manualActive,
		"remaining_seconds": int(s.loop.Status().RemainingGreen),
	}
	if manualActive {
		if cmd := s.loop.ManualCommand(); cmd != nil {
			resp["manual_command"] = manualCommandLabel(*cmd)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.loop.EmergencyActive() {
		writeError(w, http.StatusConflict, "cannot change mode while emergency preemption is active")
		return
	}

	var mode decision.Mode
	switch req.Mode {
	case "AUTO", "auto":
		mode = decision.ModeAuto
	case "MANUAL", "manual":
		mode = decision.ModeManual
	default:
		writeError(w, http.StatusBadRequest, "mode must be AUTO or MANUAL")
		return
	}

	s.loop.Enqueue(controlloop.Command{Kind: controlloop.CommandSetMode, Mode: mode})
	writeJSON(w, http.StatusOK, map[string]string{"mode": mode.String()})
}

func manualCommandLabel(cmd decision.ManualCommand) string {
	if cmd.FixedApproach != nil {
		return cmd.FixedApproach.String()
	}
	if cmd.Group == approach.GroupNS {
		return "NS_GREEN"
	}
	return "EW_GREEN"
}

type manualRequest struct {
	Group    string  `json:"group,omitempty"`
	Approach string  `json:"approach,omitempty"`
	Duration float64 `json:"duration_seconds"`
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req manualRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Duration < 10 || req.Duration > 120 {
		writeError(w, http.StatusBadRequest, "duration_seconds must be between 10 and 120")
		return
	}
	if s.loop.Mode() != decision.ModeManual {
		writeError(w, http.StatusConflict, "set_mode(MANUAL) must be called before apply_manual")
		return
	}
	if s.loop.EmergencyActive() {
		writeError(w, http.StatusConflict, "cannot apply a manual command while emergency preemption is active")
		return
	}

	cmd := decision.ManualCommand{DurationSeconds: req.Duration}
	if req.Approach != "" {
		a, ok := approach.ParseApproach(req.Approach)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown approach: "+req.Approach)
			return
		}
		cmd.FixedApproach = &a
	} else {
		switch req.Group {
		case "ns", "NS":
			cmd.Group = approach.GroupNS
		case "ew", "EW":
			cmd.Group = approach.GroupEW
		default:
			writeError(w, http.StatusBadRequest, "group must be ns or ew when approach is omitted")
			return
		}
	}

	s.loop.Enqueue(controlloop.Command{Kind: controlloop.CommandSetManual, Manual: cmd})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCancelManual(w http.ResponseWriter, r *http.Request) {
	s.loop.Enqueue(controlloop.Command{Kind: controlloop.CommandCancelManual})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
