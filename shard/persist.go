package shard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/codec"
	"github.com/hupe1980/vecmesh/model"
)

// Shard directory layout. items.jsonl and items.compressed.json are
// mutually exclusive in authority; meta.json's compressed flag says which
// one to trust.
const (
	logName        = "items.jsonl"
	compressedName = "items.compressed.json"
	metaName       = "meta.json"
	linksName      = "links.json"
)

var errNoStore = errors.New("shard: no blob store configured")

// persister writes shard documents through a blobstore.
//
// All write methods follow the log-and-continue policy: failures are
// logged and swallowed, the in-memory state stays authoritative until the
// next successful write. Only load surfaces errors.
type persister struct {
	store  blobstore.BlobStore
	codec  codec.Codec
	logger *slog.Logger
	prefix string
}

func (p *persister) name(doc string) string {
	return p.prefix + "/" + doc
}

// appendItem appends one item to the log and returns its encoded size
// (including the newline), which feeds the shard size estimate.
func (p *persister) appendItem(ctx context.Context, item *model.Item) int64 {
	b, err := p.codec.Marshal(item)
	if err != nil {
		p.logger.Warn("encode item failed", "shard", p.prefix, "item", item.ID, "error", err)
		return 0
	}
	line := append(b, '\n')
	if err := blobstore.AppendTo(ctx, p.store, p.name(logName), line); err != nil {
		p.logger.Warn("append item log failed", "shard", p.prefix, "item", item.ID, "error", err)
	}
	return int64(len(line))
}

// writeItems rewrites the whole item log (after pruning or decompression)
// and returns the new log size.
func (p *persister) writeItems(ctx context.Context, items []*model.Item) int64 {
	var buf bytes.Buffer
	for _, it := range items {
		b, err := p.codec.Marshal(it)
		if err != nil {
			p.logger.Warn("encode item failed", "shard", p.prefix, "item", it.ID, "error", err)
			continue
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	if err := p.store.Put(ctx, p.name(logName), buf.Bytes()); err != nil {
		p.logger.Warn("rewrite item log failed", "shard", p.prefix, "error", err)
	}
	return int64(buf.Len())
}

// writeClusters persists the compressed representation and returns its
// serialized size.
func (p *persister) writeClusters(ctx context.Context, clusters []model.CompressedCluster) int64 {
	b, err := p.codec.Marshal(clusters)
	if err != nil {
		p.logger.Warn("encode clusters failed", "shard", p.prefix, "error", err)
		return 0
	}
	if err := p.store.Put(ctx, p.name(compressedName), b); err != nil {
		p.logger.Warn("write compressed clusters failed", "shard", p.prefix, "error", err)
	}
	return int64(len(b))
}

func (p *persister) deleteLog(ctx context.Context) {
	if err := p.store.Delete(ctx, p.name(logName)); err != nil {
		p.logger.Warn("delete item log failed", "shard", p.prefix, "error", err)
	}
}

func (p *persister) deleteClusters(ctx context.Context) {
	if err := p.store.Delete(ctx, p.name(compressedName)); err != nil {
		p.logger.Warn("delete compressed clusters failed", "shard", p.prefix, "error", err)
	}
}

func (p *persister) writeMeta(ctx context.Context, meta model.ShardMeta) {
	b, err := p.codec.Marshal(meta)
	if err != nil {
		p.logger.Warn("encode meta failed", "shard", p.prefix, "error", err)
		return
	}
	if err := p.store.Put(ctx, p.name(metaName), b); err != nil {
		p.logger.Warn("write meta failed", "shard", p.prefix, "error", err)
	}
}

func (p *persister) writeLinks(ctx context.Context, table model.LinkTable) {
	b, err := p.codec.Marshal(table)
	if err != nil {
		p.logger.Warn("encode links failed", "shard", p.prefix, "error", err)
		return
	}
	if err := p.store.Put(ctx, p.name(linksName), b); err != nil {
		p.logger.Warn("write links failed", "shard", p.prefix, "error", err)
	}
}

// shardState is the fully decoded persisted state of one shard.
type shardState struct {
	meta     model.ShardMeta
	links    model.LinkTable
	items    []*model.Item
	clusters []model.CompressedCluster
	semantic map[string]*model.SemanticLink
	temporal map[string]*model.TemporalLink
}

// load reads the whole shard directory. The meta document is required;
// a missing links document or item log is treated as empty.
func (p *persister) load(ctx context.Context) (*shardState, error) {
	metaRaw, err := blobstore.ReadAll(ctx, p.store, p.name(metaName))
	if err != nil {
		return nil, err
	}
	state := &shardState{
		semantic: make(map[string]*model.SemanticLink),
		temporal: make(map[string]*model.TemporalLink),
	}
	if err := p.codec.Unmarshal(metaRaw, &state.meta); err != nil {
		return nil, err
	}

	// The built-in codecs share the JSON wire format, so meta decodes with
	// whichever codec is configured; the name stamped there picks the
	// decoder for the remaining documents.
	dec := p.codec
	if c, ok := codec.ByName(state.meta.Codec); ok {
		dec = c
	}

	if linksRaw, err := blobstore.ReadAll(ctx, p.store, p.name(linksName)); err == nil {
		if err := dec.Unmarshal(linksRaw, &state.links); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}
	for i := range state.links.Semantic {
		l := state.links.Semantic[i]
		state.semantic[l.Target] = &l
	}
	for i := range state.links.Temporal {
		l := state.links.Temporal[i]
		state.temporal[l.Target] = &l
	}

	// The compressed flag decides which item document is authoritative.
	if state.meta.Compressed {
		raw, err := blobstore.ReadAll(ctx, p.store, p.name(compressedName))
		if err != nil {
			return nil, err
		}
		if err := dec.Unmarshal(raw, &state.clusters); err != nil {
			return nil, err
		}
		return state, nil
	}

	raw, err := blobstore.ReadAll(ctx, p.store, p.name(logName))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return state, nil
		}
		return nil, err
	}
	for _, line := range bytes.Split(raw, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var item model.Item
		if err := dec.Unmarshal(line, &item); err != nil {
			// A torn tail write must not lose the whole shard.
			p.logger.Warn("skipping undecodable log line", "shard", p.prefix, "error", err)
			continue
		}
		state.items = append(state.items, &item)
	}
	return state, nil
}
