package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mastercactapus/router/config"
	"github.com/mastercactapus/router/router"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfgPath := flag.String("config", "", "Path to a TOML config file.")
	port := flag.String("port", "", "Port path (or name if using SPJS).")
	spjsURL := flag.String("spjs", "", "Websocket URL of the SPJS server to use.")
	controller := flag.String("controller", "", "Name of the controller to use (grbl or sim).")
	addr := flag.String("addr", "", "Address to bind the server to.")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != "" {
		cfg.Machine.Port = *port
	}
	if *spjsURL != "" {
		cfg.Machine.SPJS = *spjsURL
	}
	if *controller != "" {
		cfg.Machine.Controller = *controller
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	err = cfg.Validate()
	if err != nil {
		log.Fatal(err)
	}

	hw, closer, err := openMachine(cfg.Machine, cfg.Mesh)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	rcfg := router.Config{
		Hardware: hw,
		Settings: cfg.Router.Settings(),
	}
	if cfg.Mesh.File != "" {
		// split moves so the compensated tool follows the surface between points
		rcfg.Granularity = cfg.Mesh.Granularity
	}
	c, err := router.New(rcfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		err := c.Run(ctx)
		if err != nil && err != context.Canceled {
			log.Println("ERROR: controller:", err)
		}
		cancel()
	}()

	api := newAPI(ctx, c)
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
			api.ServeHTTP(w, req)
		}),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on %s (%s controller)", cfg.Server.Addr, cfg.Machine.Controller)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
