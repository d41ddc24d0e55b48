package redis

const (
	// KeyPrefixItem is the prefix for routine item keys
	KeyPrefixItem = "routine:item:"
	// KeyAllItems is the key for the set of all item IDs
	KeyAllItems = "routine:items:all"
	// KeyItemSeq is the insertion sequence counter
	KeyItemSeq = "routine:items:seq"
)

// ItemKey returns the Redis key for an item by ID
func ItemKey(id string) string {
	return KeyPrefixItem + id
}

// ItemKeys maps IDs to their Redis keys
func ItemKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ItemKey(id)
	}
	return keys
}

// AllItemsKey returns the key for the set of all item IDs
func AllItemsKey() string {
	return KeyAllItems
}
