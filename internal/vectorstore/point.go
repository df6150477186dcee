package vectorstore

import (
	"fmt"

	"github.com/google/uuid"
)

// pointNamespace salts the point ID derivation so IDs never collide with
// other tools writing to the same collection.
const pointNamespace = "gdrive-assistant-bot"

// PointID derives the deterministic point ID for one chunk of one document.
// Re-ingesting the same document yields the same IDs, so an upsert replaces
// the previous chunks in place.
func PointID(docID string, chunk int) string {
	name := fmt.Sprintf("%s:%s:%d", pointNamespace, docID, chunk)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
