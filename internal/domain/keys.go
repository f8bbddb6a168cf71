package domain

// KeyPrefix namespaces every key tributa writes to the store.
const KeyPrefix = "tributa:"
