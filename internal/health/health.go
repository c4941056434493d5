// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the pipeline.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full pipeline health report.
type Report struct {
	Status       SystemStatus `json:"status"`
	ChainTip     int64        `json:"chain_tip"`
	MirrorHeight int64        `json:"mirror_height"`
	BlockLag     int64        `json:"block_lag"`
	RetryQueue   int64        `json:"retry_queue"`
	DatabaseOK   bool         `json:"database_ok"`
	UpstreamOK   bool         `json:"upstream_ok"`
	Reconciling  bool         `json:"reconciling"`
}
