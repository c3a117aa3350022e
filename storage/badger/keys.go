package badger

import (
	"fmt"

	"github.com/poiesic/epigraph/core"
)

const (
	// ingestRecordPrefix namespaces journal rows.
	ingestRecordPrefix = "ingrec:"
)

// ingestRecordKey builds the storage key for a document's journal row.
func ingestRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", ingestRecordPrefix, id))
}
