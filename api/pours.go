package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/the-lightning-land/pourd/pour"
)

type postPourRequest struct {
	Channel *int `json:"channel"`
}

type pourStep struct {
	Channel         int     `json:"channel"`
	Portion         string  `json:"portion,omitempty"`
	OffsetSeconds   float64 `json:"offset_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type pourResponse struct {
	Id           string     `json:"id"`
	Kind         pour.Kind  `json:"kind"`
	Label        string     `json:"label"`
	Steps        []pourStep `json:"steps"`
	TotalSeconds float64    `json:"total_seconds"`
	Ends         time.Time  `json:"ends"`
}

func (a *Api) planResponse(w http.ResponseWriter, plan *pour.Plan) {
	res := &pourResponse{
		Id:           plan.ID,
		Kind:         plan.Kind,
		Label:        plan.Label,
		TotalSeconds: plan.Total.Seconds(),
	}

	for _, s := range plan.Steps {
		res.Steps = append(res.Steps, pourStep{
			Channel:         s.Channel,
			Portion:         s.Portion,
			OffsetSeconds:   s.Offset.Seconds(),
			DurationSeconds: s.Duration.Seconds(),
		})
	}

	if status, err := a.dispenser.Status(); err == nil && status.PlanID == plan.ID {
		res.Ends = status.Ends
	}

	a.jsonResponse(w, res, http.StatusCreated)
}

func (a *Api) handlePostPour() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := postPourRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Channel == nil {
			a.jsonError(w, "Missing channel", http.StatusBadRequest)
			return
		}

		plan, err := a.dispenser.PourSimple(*req.Channel)
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		a.planResponse(w, plan)
	}
}

func (a *Api) handlePostRecipePour() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]

		plan, err := a.dispenser.PourRecipe(name)
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		a.planResponse(w, plan)
	}
}

func (a *Api) handlePostUtility(run func() (*pour.Plan, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := run()
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		a.planResponse(w, plan)
	}
}
