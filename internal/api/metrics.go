package api

import "github.com/prometheus/client_golang/prometheus"

var (
	articlesAnalyzedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "articles_analyzed_total",
		Help: "Total number of articles submitted and scored.",
	})
	feedbackAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_accepted_total",
		Help: "Total number of feedback submissions accepted.",
	})
)

func init() {
	prometheus.MustRegister(articlesAnalyzedTotal, feedbackAcceptedTotal)
}
