package docstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modmigrate_documents_inserted_total",
		Help: "Thread log documents written to the document store.",
	})
	insertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modmigrate_document_insert_failures_total",
		Help: "Document store insert attempts that failed.",
	})
)
