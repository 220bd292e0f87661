/*
Copyright 2019 Google LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package restapi serves the state of the operator to the PE runtime.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/notification"
	"github.com/googlecloudplatform/streams-operator/controllers/subscription"
)

// Defaults of the server.
const (
	DefaultAddr           = ":10080"
	DefaultMaxConnections = 256
)

// Options of the server.
type Options struct {
	Addr           string
	MaxConnections int
	// Namespace of the requests without a namespace parameter.
	Namespace string
}

// Server exposes the subscription and notification boards, the consistent
// regions and the export properties.
type Server struct {
	Log logr.Logger

	options       Options
	subscriptions *subscription.Board
	notifications *notification.Board
	reader        client.Reader
	exports       *subscription.ExportCoordinator
}

func NewServer(
	options Options,
	subscriptions *subscription.Board,
	notifications *notification.Board,
	reader client.Reader,
	exports *subscription.ExportCoordinator,
	log logr.Logger) *Server {
	if options.Addr == "" {
		options.Addr = DefaultAddr
	}
	if options.MaxConnections <= 0 {
		options.MaxConnections = DefaultMaxConnections
	}
	if options.Namespace == "" {
		options.Namespace = "default"
	}
	return &Server{
		Log:           log,
		options:       options,
		subscriptions: subscriptions,
		notifications: notifications,
		reader:        reader,
		exports:       exports,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	var r = mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	var api = r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/subscriptions/job/{job}/pe/{pe:[0-9]+}", s.getSubscriptions).
		Methods(http.MethodGet)
	api.HandleFunc("/consistent-region/job/{job}/pe/{pe:[0-9]+}", s.getNotifications).
		Methods(http.MethodGet)
	api.HandleFunc("/consistent-region/job/{job}/region/{region:[0-9]+}", s.getRegion).
		Methods(http.MethodGet)
	api.HandleFunc("/exports/{name}/properties", s.putExportProperties).
		Methods(http.MethodPut)
	return r
}

// Start serves until the context is done.
func (s *Server) Start(ctx context.Context) error {
	var listener, err = net.Listen("tcp", s.options.Addr)
	if err != nil {
		return err
	}
	listener = netutil.LimitListener(listener, s.options.MaxConnections)
	var server = &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		var shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.Log.Error(err, "Failed to shut down the REST server")
		}
	}()
	s.Log.Info("Serving REST API", "addr", s.options.Addr,
		"maxConnections", s.options.MaxConnections)
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) namespace(r *http.Request) string {
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		return ns
	}
	return s.options.Namespace
}

func (s *Server) peKey(r *http.Request) (types.NamespacedName, bool) {
	var vars = mux.Vars(r)
	var peID, err = strconv.ParseInt(vars["pe"], 10, 64)
	if err != nil {
		return types.NamespacedName{}, false
	}
	return subscription.PeKey(s.namespace(r), vars["job"], peID), true
}

func (s *Server) getSubscriptions(w http.ResponseWriter, r *http.Request) {
	var key, ok = s.peKey(r)
	if !ok {
		s.error(w, http.StatusBadRequest, "invalid PE ID")
		return
	}
	subs, ok := s.subscriptions.Get(key)
	if !ok {
		s.error(w, http.StatusNotFound, "no subscriptions for "+key.String())
		return
	}
	s.write(w, http.StatusOK, subs)
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	var key, ok = s.peKey(r)
	if !ok {
		s.error(w, http.StatusBadRequest, "invalid PE ID")
		return
	}
	s.write(w, http.StatusOK, s.notifications.Get(key))
}

func (s *Server) getRegion(w http.ResponseWriter, r *http.Request) {
	var vars = mux.Vars(r)
	var index, err = strconv.ParseInt(vars["region"], 10, 32)
	if err != nil {
		s.error(w, http.StatusBadRequest, "invalid region index")
		return
	}
	var key = types.NamespacedName{
		Namespace: s.namespace(r),
		Name:      v1beta1.ConsistentRegionName(vars["job"], int32(index)),
	}
	var region v1beta1.ConsistentRegion
	if err := s.reader.Get(r.Context(), key, &region); err != nil {
		if apierrors.IsNotFound(err) {
			s.error(w, http.StatusNotFound, "no consistent region "+key.String())
			return
		}
		s.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.write(w, http.StatusOK, region.Spec)
}

func (s *Server) putExportProperties(w http.ResponseWriter, r *http.Request) {
	var properties []v1beta1.StreamProperty
	if err := json.NewDecoder(r.Body).Decode(&properties); err != nil {
		s.error(w, http.StatusBadRequest, "invalid properties: "+err.Error())
		return
	}
	var key = types.NamespacedName{Namespace: s.namespace(r), Name: mux.Vars(r)["name"]}
	var err = s.exports.UpdateExportProperties(r.Context(), key, properties)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, coordinator.ErrExportNotFound), errors.Is(err, coordinator.ErrJobNotFound):
		s.error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coordinator.ErrCommandTimeout):
		s.error(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.error(w, http.StatusConflict, err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) error(w http.ResponseWriter, status int, message string) {
	s.write(w, status, errorResponse{Error: message})
}

func (s *Server) write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.Error(err, "Failed to write response")
	}
}
