package audit

// Descriptor configures the generic normalizer for one watched collection.
// The eight near-identical per-type handlers of the original deployment
// collapse into this table plus one handler.
type Descriptor struct {
	// Pattern is the watched document path, with {param} wildcards.
	Pattern string
	// RecordType tags entries produced for this collection.
	RecordType RecordType
	// IdentifierParam names the path parameter whose binding becomes the
	// entry identifier. For nested line items this is the parent's key, so
	// line-item events are logged under their owning report or card.
	IdentifierParam string
}

// Watched returns the full descriptor table for the audited collections.
func Watched() []Descriptor {
	return []Descriptor{
		{Pattern: "assets/{id}", RecordType: TypeAsset, IdentifierParam: "id"},
		{Pattern: "inventories/{id}", RecordType: TypeInventory, IdentifierParam: "id"},
		{Pattern: "inventories/{id}/inventoryItems/{stockNumber}", RecordType: TypeInventoryItem, IdentifierParam: "id"},
		{Pattern: "issued/{id}", RecordType: TypeIssued, IdentifierParam: "id"},
		{Pattern: "issued/{id}/issuedItems/{itemId}", RecordType: TypeIssuedItem, IdentifierParam: "id"},
		{Pattern: "cards/{id}", RecordType: TypeCard, IdentifierParam: "id"},
		{Pattern: "cards/{id}/entries/{entryId}", RecordType: TypeCardEntry, IdentifierParam: "id"},
		{Pattern: "users/{id}", RecordType: TypeUser, IdentifierParam: "id"},
	}
}
