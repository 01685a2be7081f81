package main

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const stateInterval = 100 * time.Millisecond

type api struct {
	http.Handler
	c   *router.Controller
	sse *sse.Server
}

type routRequest struct {
	Points  []coord.Point2 `json:"points"`
	Depth   float64        `json:"depth"`
	Reverse bool           `json:"reverse"`
}

type moveRequest struct {
	Target   coord.Point `json:"target"`
	FeedRate float64     `json:"feedRate"`
}

type jobResponse struct {
	ID       string `json:"id"`
	Commands int    `json:"commands"`
}

type queuedCommand struct {
	Target   coord.Point `json:"target"`
	FeedRate float64     `json:"feedRate,omitempty"`
}

type trailPoint struct {
	Point coord.Point `json:"point"`
	AgeMS int64       `json:"ageMs"`
	Fade  float64     `json:"fade"`
}

type machineState struct {
	Position coord.Point `json:"position"`
	Final    coord.Point `json:"final"`
	Queued   int         `json:"queued"`
	Fault    string      `json:"fault,omitempty"`
}

func newAPI(ctx context.Context, c *router.Controller) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		c:       c,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	r.HandleFunc("/api/rout", a.rout).Methods("POST")
	r.HandleFunc("/api/move", a.move).Methods("POST")
	r.HandleFunc("/api/complete", a.complete).Methods("POST")
	r.HandleFunc("/api/queue", a.queue).Methods("GET")
	r.HandleFunc("/api/history", a.history).Methods("GET")
	r.HandleFunc("/api/state", a.state).Methods("GET")
	r.HandleFunc("/api/settings", a.getSettings).Methods("GET")
	r.HandleFunc("/api/settings", a.putSettings).Methods("PUT")
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/events/").Handler(a.sse)

	go a.publishState(ctx)

	return a
}

func (a *api) currentState() machineState {
	s := machineState{
		Position: a.c.LastPosition(),
		Final:    a.c.FinalPosition(),
		Queued:   a.c.Len(),
	}
	if err := a.c.LastFault(); err != nil {
		s.Fault = err.Error()
	}
	return s
}

// publishState sends the machine state to /events/state whenever it changes.
func (a *api) publishState(ctx context.Context) {
	t := time.NewTicker(stateInterval)
	defer t.Stop()

	var last machineState
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s := a.currentState()
		if s == last {
			continue
		}
		last = s
		data, err := json.Marshal(s)
		if err != nil {
			log.Printf("ERROR: marshal json: %+v", err)
			continue
		}
		a.sse.SendMessage("/events/state", sse.SimpleMessage(string(data)))
	}
}

func decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	err = json.Unmarshal(data, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) job(w http.ResponseWriter, kind string, cmds []router.Command) {
	id := uuid.New().String()
	log.Printf("%s %s: queued %d commands", kind, id, len(cmds))
	respond(w, jobResponse{ID: id, Commands: len(cmds)})
}

func (a *api) rout(w http.ResponseWriter, req *http.Request) {
	var r routRequest
	if !decode(w, req, &r) {
		return
	}
	if len(r.Points) == 0 {
		http.Error(w, "points are required", http.StatusBadRequest)
		return
	}
	a.job(w, "rout", a.c.RoutPath(r.Points, r.Depth, r.Reverse))
}

func (a *api) move(w http.ResponseWriter, req *http.Request) {
	var r moveRequest
	if !decode(w, req, &r) {
		return
	}
	if r.FeedRate <= 0 {
		http.Error(w, router.ErrInvalidSpeed.Error(), http.StatusBadRequest)
		return
	}
	cmd := router.Move{Target: r.Target, FeedRate: r.FeedRate}
	a.c.AddCommand(cmd)
	a.job(w, "move", []router.Command{cmd})
}

func (a *api) complete(w http.ResponseWriter, req *http.Request) {
	a.job(w, "complete", a.c.Complete())
}

func (a *api) queue(w http.ResponseWriter, req *http.Request) {
	pending := a.c.Pending()
	res := make([]queuedCommand, len(pending))
	for i, cmd := range pending {
		res[i].Target = cmd.FinalPosition()
		if m, ok := cmd.(router.Move); ok {
			res[i].FeedRate = m.FeedRate
		}
	}
	respond(w, res)
}

func (a *api) history(w http.ResponseWriter, req *http.Request) {
	now := time.Now()
	h := a.c.History()
	res := make([]trailPoint, len(h))
	for i, p := range h {
		res[i] = trailPoint{
			Point: p.Point,
			AgeMS: int64(now.Sub(p.Time) / time.Millisecond),
			Fade:  p.Fade(now),
		}
	}
	respond(w, res)
}

func (a *api) state(w http.ResponseWriter, req *http.Request) {
	respond(w, a.currentState())
}

func (a *api) getSettings(w http.ResponseWriter, req *http.Request) {
	respond(w, a.c.Settings())
}

// putSettings applies a partial update; fields missing from the body keep
// their current values.
func (a *api) putSettings(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = a.c.UpdateSettings(func(s *router.Settings) error {
		return json.Unmarshal(data, s)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respond(w, a.c.Settings())
}
