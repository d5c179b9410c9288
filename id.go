package kazisync

import "github.com/Tafakari-Ltd/kazibuddy-sync/id"

// ID is the primary identifier type for all kazisync entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
