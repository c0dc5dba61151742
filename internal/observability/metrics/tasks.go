package metrics

import "time"

// TaskDispatch records a finished dispatch and its duration.
func TaskDispatch(task, state string, d time.Duration) {
	if !enabled {
		return
	}
	taskDispatchTotal.WithLabelValues(task, state).Inc()
	taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// VerificationRequest records a verification submission outcome.
func VerificationRequest(network, result string) {
	if !enabled {
		return
	}
	verificationTotal.WithLabelValues(network, result).Inc()
}

// Compile records a compiler invocation.
func Compile(status string) {
	if !enabled {
		return
	}
	compileTotal.WithLabelValues(status).Inc()
}
