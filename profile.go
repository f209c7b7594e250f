/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var namedProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	for _, name := range namedProfiles {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	mux.HandlerFunc("GET", cfg.prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/trace", pprof.Trace)
}

func registerMetricsHandler(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())
}
