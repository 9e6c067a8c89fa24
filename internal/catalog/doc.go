// Package catalog is the read-mostly data layer the pipeline consults:
// characters with their approved dataset counts, trained model artifacts
// on disk, the training-job registry, and per-project scene/shot/episode
// totals. It shares the pipeline database but owns its own tables; the
// orchestrator only ever asks it questions and records two side effects
// (queued training jobs and the one-time model artifact link).
package catalog
