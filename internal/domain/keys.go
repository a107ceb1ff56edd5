package domain

// KeyPrefix namespaces all Redis keys owned by this service.
const KeyPrefix = "ellie:"
