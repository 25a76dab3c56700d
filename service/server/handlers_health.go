package server

import (
	"net/http"
	"time"

	"uapush/service/util"
)

type healthResponse struct {
	Uptime   string `json:"uptime"`
	Received int    `json:"received"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, healthResponse{
		Uptime:   util.FormatUptime(time.Since(s.startTime)),
		Received: s.recorder.Total(),
	})
}
