package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundtable_auth_login_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	registerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundtable_auth_register_total",
		Help: "Registration attempts by outcome.",
	}, []string{"outcome"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundtable_auth_rate_limited_total",
		Help: "Requests rejected by the sliding-window rate limiter, by action.",
	}, []string{"action"})

	chatTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundtable_chat_requests_total",
		Help: "Chat proxy requests by outcome.",
	}, []string{"outcome"})
)
