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

// Package api exposes lemmatization over a JSON HTTP API.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/langs"
	"github.com/czcorpus/rdrlemm/lemmatizer"
)

const (
	maxBatchSize     = 10000
	maxBodySizeBytes = 4 * 1024 * 1024
)

type lemmatizeResponse struct {
	Lang  string `json:"lang"`
	Word  string `json:"word"`
	Lemma string `json:"lemma"`
}

type batchRequest struct {
	Lang  string   `json:"lang"`
	Words []string `json:"words"`
}

type batchResponse struct {
	Lang   string   `json:"lang"`
	Lemmas []string `json:"lemmas"`
}

type languagesResponse struct {
	Languages []string `json:"languages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps lemmatizer errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, langs.ErrUnsupportedLanguage):
		return http.StatusNotFound
	case errors.Is(err, lemmatizer.ErrNoModelLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeLemmatizerError(w http.ResponseWriter, lang string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("lang", lang).Msg("failed to process lemmatization request")
	}
	writeError(w, status, err.Error())
}

type Actions struct {
	pool *langs.Pool
}

func (a *Actions) Lemmatize(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	word := r.URL.Query().Get("word")
	if lang == "" {
		writeError(w, http.StatusBadRequest, "missing 'lang' query parameter")
		return
	}
	// an empty word is valid (its lemma is empty), a missing one is not
	if !r.URL.Query().Has("word") {
		writeError(w, http.StatusBadRequest, "missing 'word' query parameter")
		return
	}
	lemma, err := a.pool.Lemmatize(lang, word)
	if err != nil {
		writeLemmatizerError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, lemmatizeResponse{Lang: lang, Word: word, Lemma: lemma})
}

func (a *Actions) LemmatizeBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySizeBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(
				w,
				http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body too large (max. %d bytes)", tooLarge.Limit),
			)
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req batchRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with 'lang' and 'words' fields")
		return
	}
	if req.Lang == "" {
		writeError(w, http.StatusBadRequest, "missing 'lang'")
		return
	}
	if len(req.Words) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many words (max. %d)", maxBatchSize))
		return
	}
	lm, err := a.pool.Get(req.Lang)
	if err != nil {
		writeLemmatizerError(w, req.Lang, err)
		return
	}
	lemmas, err := lm.LemmatizeAll(req.Words)
	if err != nil {
		writeLemmatizerError(w, req.Lang, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Lang: req.Lang, Lemmas: lemmas})
}

func (a *Actions) Languages(w http.ResponseWriter, r *http.Request) {
	codes, err := a.pool.Registry().SupportedLanguages()
	if err != nil {
		log.Error().Err(err).Msg("failed to list languages")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, languagesResponse{Languages: codes})
}

func (a *Actions) ModelInfo(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	lm, err := a.pool.Get(lang)
	if err != nil {
		writeLemmatizerError(w, lang, err)
		return
	}
	info, err := lm.ModelInfo()
	if err != nil {
		writeLemmatizerError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *Actions) Reload(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	if err := a.pool.Reload(lang); err != nil {
		writeLemmatizerError(w, lang, err)
		return
	}
	log.Info().Str("lang", lang).Msg("model reloaded")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// NewHandler creates a router with all the API endpoints
func NewHandler(pool *langs.Pool) http.Handler {
	actions := &Actions{pool: pool}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lemmatize", actions.Lemmatize)
	mux.HandleFunc("POST /api/lemmatize/batch", actions.LemmatizeBatch)
	mux.HandleFunc("GET /api/languages", actions.Languages)
	mux.HandleFunc("GET /api/languages/{lang}", actions.ModelInfo)
	mux.HandleFunc("POST /api/languages/{lang}/reload", actions.Reload)
	return mux
}
