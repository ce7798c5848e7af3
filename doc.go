// Package vecmesh provides an embeddable sharded associative vector store.
//
// Items (embedding + payload + score) are routed across capacity-bounded
// shards by centroid similarity. Shards link to each other through a
// decaying graph of semantic, temporal and hierarchical edges, and queries
// are answered by a hybrid of direct vector routing and spreading
// activation over that graph:
//
//   - Inserts pick the shard whose centroid is most similar to the new
//     embedding, creating fresh shards when the chosen one is saturated.
//   - Searches seed from the best-matching shards, then spread activation
//     across the link graph to reach shards plain similarity would miss.
//   - Shards returned together accrue co-access statistics that graduate
//     into durable semantic links, so frequently co-retrieved shards
//     become structurally closer over time.
//   - Periodic maintenance decays item scores with an explicit half-life,
//     prunes what falls below the floor, and lossily compresses cold
//     shards via quantized cluster-residual encoding.
//
// # Quick start
//
//	ctx := context.Background()
//	store, err := vecmesh.New(128,
//	    vecmesh.WithLocalPath("./data"),
//	    vecmesh.WithHalfLife(7*24*time.Hour),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer store.Close()
//
//	stored, err := store.Insert(ctx, &model.Item{
//	    Embedding: embedding,
//	    Payload:   payload,
//	})
//
//	results, err := store.Search(ctx, query, 10)
//	for _, r := range results {
//	    fmt.Println(r.Item.ID, r.Similarity, r.Provenance)
//	}
//
// Maintenance is externally scheduled:
//
//	ticker := time.NewTicker(time.Hour)
//	for range ticker.C {
//	    _ = store.MaintenanceTick(ctx)
//	}
//
// Persistence goes through the blobstore package: local disk by default,
// in-memory for tests, MinIO or S3 for object storage. There is no
// network protocol; vecmesh is a library, not a server.
package vecmesh
