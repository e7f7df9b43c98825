// Package metrics provides the observability hooks for autopipe.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs nil checks:
//
//	orch := orchestrator.New(ci, gen, cfg,
//	    orchestrator.WithRecorder(metrics.NewPrometheusRecorder(registry)))
//
// The Prometheus implementation registers its collectors on the registry it is
// given; HTTPHandler exposes that registry for scraping.
package metrics
