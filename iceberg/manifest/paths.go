package manifest

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is process-wide; ULID generation only needs monotonic-enough
// randomness for path disambiguation, not cryptographic strength.
var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

// newID returns a lexically sortable unique id for use in a manifest or
// manifest-list file name. The wire format names this path component
// "uuid"; this core uses a ULID instead, a format-compatible opaque path
// segment that additionally sorts by creation time, so
// storage.Backend.List(prefix) returns a commit's manifests in the order
// they were generated without parsing timestamps out of the metadata
// itself.
func newID() string { return ulid.MustNew(ulid.Now(), entropy).String() }

// GenerateManifestPath returns the canonical path for the k-th manifest
// file written under a table's metadata directory:
// "{table-location}/metadata/{uuid}-m{k}.avro".
func GenerateManifestPath(location string, k int) string {
	return fmt.Sprintf("%s/metadata/%s-m%d.avro", strings.TrimRight(location, "/"), newID(), k)
}

// GenerateManifestListPath returns the canonical path for a snapshot's
// manifest-list file: "{table-location}/metadata/snap-{snapshot-id}-
// {attempt}-{uuid}.avro". attempt distinguishes retries of the same
// snapshot id within one commit loop.
func GenerateManifestListPath(location string, snapshotID int64, attempt int) string {
	return fmt.Sprintf("%s/metadata/snap-%d-%d-%s.avro", strings.TrimRight(location, "/"), snapshotID, attempt, newID())
}
