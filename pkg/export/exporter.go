package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kafbridge/kafbridge/pkg/config"
	"github.com/kafbridge/kafbridge/pkg/identity"
	"github.com/kafbridge/kafbridge/pkg/kafka"
	"github.com/kafbridge/kafbridge/pkg/topics"
)

// ErrUnknownTopic marks an export request for a name outside the fixed
// topic set. No broker read is attempted for those.
var ErrUnknownTopic = errors.New("unknown topic")

const (
	// DefaultMaxWindow bounds how many trailing records one export replays,
	// independent of total log size.
	DefaultMaxWindow = 100_000

	dirMode       = 0o755
	sweepInterval = 1 * time.Minute
)

// Exporter replays a bounded trailing window of one topic, filters rows to
// the requesting principal, shapes them and materializes a CSV artifact.
// Every call opens its own reader through the factory; ingestion state is
// never touched.
type Exporter struct {
	open        kafka.Factory
	dir         string
	maxWindow   int64
	idleTimeout time.Duration
	retention   time.Duration
	registry    *Registry
	mirror      *S3Mirror
}

func New(open kafka.Factory, cfg config.ExportConfig, registry *Registry) (*Exporter, error) {
	if err := os.MkdirAll(cfg.Dir, dirMode); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	maxWindow := cfg.MaxWindow
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}

	e := &Exporter{
		open:        open,
		dir:         cfg.Dir,
		maxWindow:   maxWindow,
		idleTimeout: cfg.IdleTimeout,
		retention:   cfg.Retention,
		registry:    registry,
	}
	if cfg.S3.Enabled {
		e.mirror = NewS3Mirror(cfg.S3)
	}
	return e, nil
}

// Registry exposes the artifact registry backing the listing endpoint.
func (e *Exporter) Registry() *Registry { return e.registry }

// Dir returns the artifact directory.
func (e *Exporter) Dir() string { return e.dir }

// Export replays the trailing window of topic, keeps only rows visible to
// the principal derived from credential (empty credential: only rows
// without a merchant_id), shapes them and writes the CSV artifact. The end
// offset is fixed before reading starts; records arriving later are never
// included. An idle timeout simply ends the read with what was gathered.
func (e *Exporter) Export(ctx context.Context, topic, credential string) (*Artifact, error) {
	if !topics.IsKnown(topic) {
		return nil, ErrUnknownTopic
	}

	principal := ""
	if credential != "" {
		principal = identity.PrincipalID(credential)
	}

	payloads, err := e.replayWindow(ctx, topic, principal)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", topic, err)
	}

	rows := ShaperFor(topic)(payloads)

	name := artifactName(topic, principal)
	path := filepath.Join(e.dir, name)
	count, size, err := writeCSV(path, rows)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("export %s: %w", topic, err)
	}

	artifact := Artifact{
		Name:    name,
		Path:    path,
		URL:     "data/" + name,
		Size:    size,
		Rows:    count,
		Created: time.Now(),
	}
	e.registry.Add(artifact)

	if e.mirror != nil {
		if location, mirrorErr := e.mirror.Upload(ctx, path, name); mirrorErr != nil {
			// The local artifact is complete; a mirror failure must not
			// fail the request.
			log.Printf("[Export] S3 mirror failed for %s: %v", name, mirrorErr)
		} else {
			log.Printf("[Export] mirrored %s to %s", name, location)
		}
	}

	return &artifact, nil
}

func (e *Exporter) replayWindow(ctx context.Context, topic, principal string) ([]map[string]any, error) {
	reader, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	defer reader.Close()

	low, high, err := reader.Watermarks(topic)
	if err != nil {
		return nil, err
	}

	offset := high - e.maxWindow
	if offset < low {
		offset = low
	}
	if err := reader.Assign(map[string]int64{topic: offset}); err != nil {
		return nil, err
	}

	// Offsets are assumed contiguous inside the window: the loop counts
	// records upward and stops strictly before the end offset fixed above.
	// A log with deleted individual records would end the replay early via
	// the idle timeout instead; kept for compatibility with the original
	// best-effort behavior.
	var payloads []map[string]any
	for offset < high {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msg, err := reader.Read(e.idleTimeout)
		if err != nil {
			return nil, fmt.Errorf("read at offset %d: %w", offset, err)
		}
		if msg == nil {
			break // idle timeout, normal end of replay
		}
		offset++

		value := make(map[string]any)
		if err := json.Unmarshal(msg.Value, &value); err != nil {
			log.Printf("[Export] skipping malformed record on %s at offset %d: %v", topic, msg.Offset, err)
			continue
		}

		// Rows without a merchant_id are public; the rest are visible only
		// to the merchant the credential hashes to.
		if merchant, ok := value["merchant_id"]; ok {
			if principal == "" || merchant != principal {
				continue
			}
		}
		payloads = append(payloads, value)
	}
	return payloads, nil
}

// RunRetention deletes artifacts older than the configured retention until
// the context ends. A retention of zero disables the sweep.
func (e *Exporter) RunRetention(ctx context.Context) error {
	if e.retention <= 0 {
		return nil
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-e.retention)
			for _, artifact := range e.registry.Expired(cutoff) {
				if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
					log.Printf("[Export] failed to remove expired artifact %s: %v", artifact.Name, err)
					continue
				}
				log.Printf("[Export] removed expired artifact %s", artifact.Name)
			}
		}
	}
}

// artifactName builds <topic>_<unix>_<hash>.csv. The hash keeps names of
// exports requested within the same second from colliding.
func artifactName(topic, principal string) string {
	now := time.Now()
	h := xxhash.Sum64String(topic + principal + strconv.FormatInt(now.UnixNano(), 10))
	return fmt.Sprintf("%s_%d_%08x.csv", topic, now.Unix(), uint32(h))
}
