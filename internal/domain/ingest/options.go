package ingest

import "github.com/okian/nbai/pkg/logger"

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithPlayerShards sets the player box-score inputs.
func WithPlayerShards(shards ...Shard) Option {
	return func(p *Pipeline) {
		p.playerShards = shards
	}
}

// WithTeamShards sets the team game-log inputs.
func WithTeamShards(shards ...Shard) Option {
	return func(p *Pipeline) {
		p.teamShards = shards
	}
}

// WithExportPath sets where the cleaned team table is written as CSV.
// An empty path disables the export.
func WithExportPath(path string) Option {
	return func(p *Pipeline) {
		p.exportPath = path
	}
}

// WithForce rebuilds snapshots that already exist.
func WithForce(force bool) Option {
	return func(p *Pipeline) {
		p.force = force
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}
