package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "atmetny"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ActivationChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "activation_checks_total", Help: "Activation code checks by outcome."},
		[]string{"result"},
	)
	ActivationConfirms = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "activation_confirms_total", Help: "Activation code redemptions by outcome."},
		[]string{"result"},
	)
	ExamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "exam_attempts_total", Help: "Submitted exam attempts by exam type."},
		[]string{"type"},
	)
	AIAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ai_analysis_total", Help: "AI performance analyses by outcome."},
		[]string{"result"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_lookups_total", Help: "Read-cache lookups by result (hit|miss|error)."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ActivationChecks)
	reg.MustRegister(ActivationConfirms)
	reg.MustRegister(ExamAttempts)
	reg.MustRegister(AIAnalyses)
	reg.MustRegister(CacheLookups)
}
