package quantization

import (
	"github.com/hupe1980/vecmesh/distance"
	"github.com/hupe1980/vecmesh/model"
)

// DefaultClusterThreshold is the minimum mean member-to-centroid cosine
// similarity a cluster must reach before lossy compression is applied.
const DefaultClusterThreshold = 0.90

// ClusterResult is the outcome of a compression attempt.
//
// Compression never fails with an error: if the quality gate is not met,
// Compressed is false and Cluster is nil. Callers must handle both
// outcomes (retry with a different grouping or keep the items raw).
type ClusterResult struct {
	// Compressed reports whether the gate passed and Cluster is valid.
	Compressed bool
	// MeanSimilarity is the measured mean cosine similarity of the
	// members to the cluster centroid.
	MeanSimilarity float64
	// Cluster is the compressed representation, nil unless Compressed.
	Cluster *model.CompressedCluster
}

// CompressCluster compresses a group of items into a quantized centroid
// plus per-item quantized residuals.
//
// If simThreshold <= 0, DefaultClusterThreshold applies. The gate refuses
// groups whose mean member-to-centroid similarity is below the threshold.
func CompressCluster(items []*model.Item, simThreshold float64) ClusterResult {
	if simThreshold <= 0 {
		simThreshold = DefaultClusterThreshold
	}
	if len(items) == 0 {
		return ClusterResult{}
	}

	vectors := make([][]float32, len(items))
	for i, it := range items {
		vectors[i] = it.Embedding
	}
	centroid := ComputeCentroid(vectors)

	var meanSim float64
	for _, v := range vectors {
		meanSim += distance.Cosine(v, centroid)
	}
	meanSim /= float64(len(vectors))

	if meanSim < simThreshold {
		return ClusterResult{MeanSimilarity: meanSim}
	}

	cluster := &model.CompressedCluster{
		Centroid: QuantizeVector(centroid),
		Items:    make([]model.CompressedItem, 0, len(items)),
	}
	// Residuals are taken against the reconstructed centroid, not the raw
	// one, so the centroid's own quantization error folds into the residual
	// and the round-trip error stays within the residual step.
	reconstructed := Dequantize(cluster.Centroid)
	for _, it := range items {
		residual := make([]float32, len(it.Embedding))
		for i := range residual {
			residual[i] = it.Embedding[i] - reconstructed[i]
		}
		cluster.Items = append(cluster.Items, model.CompressedItem{
			ID:           it.ID,
			Residual:     QuantizeResidual(residual),
			Score:        it.Score,
			Payload:      it.Payload,
			Metadata:     it.Metadata,
			CreatedAt:    it.CreatedAt,
			LastAccessAt: it.LastAccessAt,
		})
	}

	return ClusterResult{Compressed: true, MeanSimilarity: meanSim, Cluster: cluster}
}

// DecompressCluster reconstructs the items of a compressed cluster.
// Each embedding is rebuilt as centroid + residual/scale and marked
// Reconstructed.
func DecompressCluster(cluster *model.CompressedCluster) []*model.Item {
	if cluster == nil {
		return nil
	}

	centroid := Dequantize(cluster.Centroid)
	items := make([]*model.Item, 0, len(cluster.Items))
	for i := range cluster.Items {
		ci := &cluster.Items[i]
		embedding := make([]float32, len(centroid))
		residual := Dequantize(ci.Residual)
		for j := range embedding {
			embedding[j] = centroid[j]
			if j < len(residual) {
				embedding[j] += residual[j]
			}
		}
		items = append(items, &model.Item{
			ID:            ci.ID,
			Embedding:     embedding,
			Score:         ci.Score,
			Payload:       ci.Payload,
			Metadata:      ci.Metadata,
			CreatedAt:     ci.CreatedAt,
			LastAccessAt:  ci.LastAccessAt,
			Reconstructed: true,
		})
	}
	return items
}
