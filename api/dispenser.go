package api

import (
	"fmt"
	"net/http"

	"github.com/the-lightning-land/pourd/dispenser"
)

type dispenserResponse struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Status  *dispenser.Status `json:"status,omitempty"`
}

type patchDispenserOp struct {
	Op    string `json:"op"`
	Value string `json:"value,omitempty"`
}

type patchDispenserRequest []patchDispenserOp

func (a *Api) handleGetDispenser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := a.dispenser.Name()
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		status, err := a.dispenser.Status()
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		a.jsonResponse(w, &dispenserResponse{
			Name:    name,
			Version: a.version,
			Status:  &status,
		}, http.StatusOK)
	}
}

func (a *Api) handlePatchDispenser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := patchDispenserRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		for _, op := range req {
			switch op.Op {
			case "abort":
				if _, err := a.dispenser.Abort(); err != nil {
					a.dispenserError(w, err)
					return
				}
			case "cycle_portion":
				if _, err := a.dispenser.CyclePortionSize(); err != nil {
					a.dispenserError(w, err)
					return
				}
			case "set_name":
				if err := a.dispenser.SetName(op.Value); err != nil {
					a.dispenserError(w, err)
					return
				}
			case "shutdown":
				name, _ := a.dispenser.Name()

				if err := a.dispenser.RequestShutdown(); err != nil {
					a.jsonError(w, fmt.Sprintf("Could not shut down: %v", err), http.StatusInternalServerError)
					return
				}

				// The loop is gone, there is no status left to report.
				a.jsonResponse(w, &dispenserResponse{
					Name:    name,
					Version: a.version,
				}, http.StatusAccepted)
				return
			default:
				a.jsonError(w, fmt.Sprintf("Unknown op %q", op.Op), http.StatusBadRequest)
				return
			}
		}

		a.handleGetDispenser()(w, r)
	}
}
