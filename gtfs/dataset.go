package gtfs

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-ingest/utils"
)

// lockMagic is the first half of every advisory lock key this pipeline
// takes; the second half is derived from the dataset name. The value is
// the ASCII bytes "gtfs" read as a big-endian int32. Both halves are
// correctness-relevant constants: changing either changes which
// processes contend on which lock.
const lockMagic int32 = 0x67746673

// Dataset identifies one configured feed together with everything
// derived from its name: the live schema it loads into and the advisory
// lock key pair that serializes updates across processes. Values are
// immutable for the process lifetime.
type Dataset struct {
	Name    string
	URL     string
	Headers map[string]string
}

// Slug returns the schema-safe form of the dataset name: lowercased,
// with every rune outside [a-z0-9] replaced by an underscore.
func (d Dataset) Slug() string {
	var b strings.Builder
	for _, r := range strings.ToLower(d.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Schema returns the dataset's live schema name.
func (d Dataset) Schema() string {
	return "gtfs_" + d.Slug()
}

// StagingSchema returns the transient schema name for a load started at
// t. The suffix is a UTC timestamp, so two loads of the same dataset
// started in different seconds never collide.
func (d Dataset) StagingSchema(t time.Time) string {
	return d.Schema() + "_" + utils.CompactTimestampUTC(t)
}

// LockKeys returns the advisory lock key pair for the dataset: the
// fixed lockMagic constant and the FNV-1a 32-bit hash of the raw name
// reinterpreted as a signed int32.
func (d Dataset) LockKeys() (int32, int32) {
	h := fnv.New32a()
	h.Write([]byte(d.Name))
	return lockMagic, int32(h.Sum32())
}
