package vecmesh

// Stats is an aggregate view of the store for observability consumers.
type Stats struct {
	// ShardCount is the number of shards, compressed or not.
	ShardCount int
	// ItemCount is the total number of live items across all shards.
	ItemCount int
	// AvgUtilization is the mean shard utilization against the configured
	// capacity estimate.
	AvgUtilization float64
	// CompressionRate is the fraction of shards currently compressed.
	CompressionRate float64
	// SemanticLinks and TemporalLinks count outgoing edges across all
	// shard link tables.
	SemanticLinks int
	TemporalLinks int
}

// Stats aggregates counts across all shards.
func (m *Store) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{ShardCount: len(m.shards)}
	if stats.ShardCount == 0 {
		return stats
	}

	var utilization float64
	compressed := 0
	for _, sh := range m.shards {
		stats.ItemCount += sh.ItemCount()
		utilization += sh.Utilization(m.opts.shardCapacity)
		if sh.Compressed() {
			compressed++
		}
		semantic, temporal := sh.LinkCounts()
		stats.SemanticLinks += semantic
		stats.TemporalLinks += temporal
	}
	stats.AvgUtilization = utilization / float64(stats.ShardCount)
	stats.CompressionRate = float64(compressed) / float64(stats.ShardCount)
	return stats
}
