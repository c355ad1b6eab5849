package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/icehousedb/icehouse/pkg/common"
	"github.com/icehousedb/icehouse/pkg/engine"
	"github.com/icehousedb/icehouse/pkg/persist"
	"github.com/icehousedb/icehouse/pkg/rest"

	log "github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "", "path of the yaml config file")
	listenAddr = flag.String("listen", "", "address:port to listen on, overrides config")
	statePath  = flag.String("state", "", "path of the state snapshot file, overrides config")
	logLevel   = flag.String("loglevel", "", "the level of log")
)

func main() {
	flag.Parse()

	conf := common.NewDefaultServerConfig()
	if *configPath != "" {
		conf.LoadFromFile(*configPath)
	}
	if *statePath != "" {
		conf.StatePath = *statePath
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}

	if err := conf.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	level, _ := log.ParseLevel(conf.LogLevel)
	log.SetLevel(level)

	e := engine.New()
	if conf.StatePath != "" && persist.Exists(conf.StatePath) {
		if err := persist.Load(conf.StatePath, e); err != nil {
			log.Fatalf("%v", err)
		}
	}

	addr := conf.ListenAddr()
	if *listenAddr != "" {
		addr = *listenAddr
	}

	server := rest.NewServer(e)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		if conf.StatePath != "" {
			if err := persist.Save(conf.StatePath, e); err != nil {
				log.Errorf("error saving state snapshot: %v", err)
			}
		}
		httpServer.Close()
	}()

	log.WithFields(log.Fields{"addr": addr}).Info("icehoused::main; serving")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("%v", err)
	}
}
