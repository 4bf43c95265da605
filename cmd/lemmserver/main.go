// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command lemmserver exposes lemmatization models from a models
// directory as a JSON HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/api"
	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/langs"
)

const (
	shutdownTimeout = 10 * time.Second
)

func main() {
	listenAddr := flag.String("listen", "", "listen address (overrides the configuration)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <config-file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run the lemmatization HTTP API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	conf, err := cnf.LoadConf(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	if *listenAddr != "" {
		conf.Server.ListenAddress = *listenAddr
	}
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(conf.ZerologLevel())

	pool := langs.NewPool(langs.NewRegistry(conf.ModelsDir))
	if err := pool.Preload(conf.Server.PreloadLanguages...); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: conf.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	srv := &http.Server{
		Addr:         conf.Server.ListenAddress,
		Handler:      corsHandler.Handler(api.NewHandler(pool)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("address", conf.Server.ListenAddress).
			Str("modelsDir", conf.ModelsDir).
			Msg("starting lemmatization server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server gracefully")
	}
}
