package vecmesh

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/codec"
	"github.com/hupe1980/vecmesh/resource"
)

type options struct {
	store     blobstore.BlobStore
	localPath string
	codec     codec.Codec
	logger    *Logger
	metrics   MetricsCollector
	resource  resource.Config

	shardCapacity int64
	maxShards     int

	linkThreshold  float64
	linkCandidates int
	maxLinks       int

	compressionEnabled   bool
	compressionThreshold float64
	compressionTrigger   float64
	minCompressItems     int

	halfLife       time.Duration
	pruneThreshold float64
	linkDecayRate  float64
	linkFloor      float64
	temporalMaxAge time.Duration

	temporalInitialWeight float64
	graduationCount       int
	graduationWeight      float64

	hopBudget       int
	hopDecay        float64
	activationFloor float64
	seedFraction    float64
	hybridBoost     float64
}

// Option configures store construction.
type Option func(*options)

// WithBlobStore sets the blob store used for all persistence. Without a
// blob store (and without WithLocalPath) the store is memory-only.
func WithBlobStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLocalPath persists the store under the given directory on local
// disk. Shorthand for WithBlobStore(blobstore.NewLocalStore(path)).
func WithLocalPath(path string) Option {
	return func(o *options) {
		o.localPath = path
	}
}

// WithCodec configures the codec used for persisted documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithResourceConfig bounds background maintenance: concurrent per-shard
// sweep workers and persistence IO throughput.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resource = cfg
	}
}

// WithShardCapacity sets the capacity estimate per shard in bytes.
// Utilization is sizeEstimate/capacity; the store never knowingly inserts
// into a shard above 0.95 utilization. Default 1 MiB.
func WithShardCapacity(bytes int64) Option {
	return func(o *options) {
		o.shardCapacity = bytes
	}
}

// WithMaxShards sets the global shard ceiling. Once reached, saturated
// routing falls back to the most similar shard still under 0.95
// utilization, and fails with ErrCapacityExhausted when there is none.
// Default 64.
func WithMaxShards(n int) Option {
	return func(o *options) {
		o.maxShards = n
	}
}

// WithLinkThreshold sets the minimum centroid similarity for semantic
// link discovery at insert time. Default 0.7.
func WithLinkThreshold(threshold float64) Option {
	return func(o *options) {
		o.linkThreshold = threshold
	}
}

// WithLinkCandidates sets how many link candidates are taken per insert.
// Default 5.
func WithLinkCandidates(n int) Option {
	return func(o *options) {
		o.linkCandidates = n
	}
}

// WithMaxLinks bounds each shard's outgoing semantic link table.
// Default 20.
func WithMaxLinks(n int) Option {
	return func(o *options) {
		o.maxLinks = n
	}
}

// WithCompression enables or disables maintenance-time shard compression.
// Enabled by default.
func WithCompression(enabled bool) Option {
	return func(o *options) {
		o.compressionEnabled = enabled
	}
}

// WithCompressionThreshold sets the minimum intra-cluster similarity for
// lossy cluster compression. Default 0.90.
func WithCompressionThreshold(threshold float64) Option {
	return func(o *options) {
		o.compressionThreshold = threshold
	}
}

// WithCompressionTrigger sets the utilization above which maintenance
// compresses an uncompressed shard. Default 0.6.
func WithCompressionTrigger(utilization float64) Option {
	return func(o *options) {
		o.compressionTrigger = utilization
	}
}

// WithMinCompressItems sets the minimum item count before compression
// pays off. Default 10.
func WithMinCompressItems(n int) Option {
	return func(o *options) {
		o.minCompressItems = n
	}
}

// WithHalfLife sets the score decay half-life: an item untouched for
// exactly one half-life halves its score. Default 7 days.
func WithHalfLife(d time.Duration) Option {
	return func(o *options) {
		o.halfLife = d
	}
}

// WithPruneThreshold sets the decayed score below which maintenance drops
// an item. Default 0.05.
func WithPruneThreshold(threshold float64) Option {
	return func(o *options) {
		o.pruneThreshold = threshold
	}
}

// WithLinkDecayRate sets the flat semantic link weight reduction per
// maintenance tick. Default 0.02.
func WithLinkDecayRate(rate float64) Option {
	return func(o *options) {
		o.linkDecayRate = rate
	}
}

// WithLinkFloor sets the weight below which a decayed semantic link is
// dropped. Default 0.05.
func WithLinkFloor(floor float64) Option {
	return func(o *options) {
		o.linkFloor = floor
	}
}

// WithTemporalMaxAge sets the age past which an unused temporal link is
// dropped. Default 30 days.
func WithTemporalMaxAge(d time.Duration) Option {
	return func(o *options) {
		o.temporalMaxAge = d
	}
}

// WithTemporalInitialWeight sets the weight a temporal link is created
// with on first co-access. Default 0.3.
func WithTemporalInitialWeight(weight float64) Option {
	return func(o *options) {
		o.temporalInitialWeight = weight
	}
}

// WithGraduation sets the co-access count a temporal link must exceed to
// graduate into a semantic link, and the weight of the graduated link.
// Defaults: count 5, weight 0.6.
func WithGraduation(count int, weight float64) Option {
	return func(o *options) {
		o.graduationCount = count
		o.graduationWeight = weight
	}
}

// WithHopBudget sets the maximum BFS depth for spreading activation.
// Default 4.
func WithHopBudget(hops int) Option {
	return func(o *options) {
		o.hopBudget = hops
	}
}

// WithHopDecay sets the flat geometric activation decay per hop.
// Default 0.75.
func WithHopDecay(decay float64) Option {
	return func(o *options) {
		o.hopDecay = decay
	}
}

// WithActivationFloor sets the acceptance threshold for graph-discovered
// shards: similarity times decayed activation must exceed it. Default 0.3.
func WithActivationFloor(floor float64) Option {
	return func(o *options) {
		o.activationFloor = floor
	}
}

// WithSeedFraction sets the fraction of k used to pick vector-routing
// seed shards (ceil(fraction*k)). Default 0.6.
func WithSeedFraction(fraction float64) Option {
	return func(o *options) {
		o.seedFraction = fraction
	}
}

// WithHybridBoost sets the score multiplier for shards found by both the
// vector-routing and graph phases. Default 1.2.
func WithHybridBoost(boost float64) Option {
	return func(o *options) {
		o.hybridBoost = boost
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:   codec.Default,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},

		shardCapacity: 1 << 20,
		maxShards:     64,

		linkThreshold:  0.7,
		linkCandidates: 5,
		maxLinks:       20,

		compressionEnabled:   true,
		compressionThreshold: 0.90,
		compressionTrigger:   0.6,
		minCompressItems:     10,

		halfLife:       7 * 24 * time.Hour,
		pruneThreshold: 0.05,
		linkDecayRate:  0.02,
		linkFloor:      0.05,
		temporalMaxAge: 30 * 24 * time.Hour,

		temporalInitialWeight: 0.3,
		graduationCount:       5,
		graduationWeight:      0.6,

		hopBudget:       4,
		hopDecay:        0.75,
		activationFloor: 0.3,
		seedFraction:    0.6,
		hybridBoost:     1.2,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
