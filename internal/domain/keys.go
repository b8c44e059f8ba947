package domain

// KeyPrefix namespaces every key the engine writes to the search store.
const KeyPrefix = "facetdex:"
