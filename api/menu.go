package api

import (
	"net/http"

	"github.com/the-lightning-land/pourd/menu"
)

type menuChannel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type menuPortion struct {
	Label   string  `json:"label"`
	Seconds float64 `json:"seconds"`
}

type menuResponse struct {
	Channels     []menuChannel `json:"channels"`
	Portions     []menuPortion `json:"portions"`
	Recipes      []menu.Recipe `json:"recipes"`
	PrimeSeconds float64       `json:"prime_seconds"`
	WashSeconds  float64       `json:"wash_seconds"`
}

func (a *Api) handleGetMenu() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := a.dispenser.Menu()

		res := &menuResponse{
			Channels:     []menuChannel{},
			Portions:     []menuPortion{},
			Recipes:      m.Recipes,
			PrimeSeconds: m.Prime.Seconds(),
			WashSeconds:  m.Wash.Seconds(),
		}

		for id := 0; id < m.ChannelCount(); id++ {
			res.Channels = append(res.Channels, menuChannel{ID: id, Name: m.ChannelName(id)})
		}

		for _, p := range m.Portions {
			res.Portions = append(res.Portions, menuPortion{Label: p.Label, Seconds: p.Duration.Seconds()})
		}

		if res.Recipes == nil {
			res.Recipes = []menu.Recipe{}
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}
