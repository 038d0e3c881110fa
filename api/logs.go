package api

import (
	"net/http"
	"strconv"

	"github.com/the-lightning-land/pourd/pourlog"
)

type logsResponse struct {
	Lines []pourlog.Line `json:"lines"`
}

func (a *Api) handleGetLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 0

		if s := r.URL.Query().Get("n"); s != "" {
			var err error
			n, err = strconv.Atoi(s)
			if err != nil || n < 0 {
				a.jsonError(w, "Invalid line count", http.StatusBadRequest)
				return
			}
		}

		res := &logsResponse{Lines: []pourlog.Line{}}

		if a.logs != nil {
			res.Lines = append(res.Lines, a.logs.Lines(n)...)
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}
